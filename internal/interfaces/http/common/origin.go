package common

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// OriginAddress はリクエストの送信元アドレスを返す。
// TrustedRealIP が信頼済みプロキシ経由と判定した場合のみ RemoteAddr が書き換わっている。
func OriginAddress(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}

// TrustedRealIP は接続元が trusted に含まれるときだけ X-Forwarded-For / X-Real-IP を採用する。
// X-Forwarded-For は右から辿り、信頼済みプロキシ以外で最初に現れたアドレスを使う。
// X-Forwarded-For が無いときは X-Real-IP を見る。
// それ以外の接続ではヘッダーを無視し、ソケットの接続元をそのまま使う。
func TrustedRealIP(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			peer, ok := parseAddr(OriginAddress(r))
			if ok && containsAddr(trusted, peer) {
				if client, found := forwardedClient(r.Header, trusted); found {
					r.RemoteAddr = client.String()
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forwardedClient(h http.Header, trusted []netip.Prefix) (netip.Addr, bool) {
	var hops []string
	for _, value := range h.Values("X-Forwarded-For") {
		hops = append(hops, strings.Split(value, ",")...)
	}
	var leftmost netip.Addr
	for i := len(hops) - 1; i >= 0; i-- {
		addr, ok := parseAddr(hops[i])
		if !ok {
			// 改ざんされたチェーンはそれ以上辿らない
			break
		}
		leftmost = addr
		if !containsAddr(trusted, addr) {
			return addr, true
		}
	}
	if leftmost.IsValid() {
		return leftmost, true
	}
	return parseAddr(h.Get("X-Real-IP"))
}

func parseAddr(value string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(strings.Trim(strings.TrimSpace(value), "[]"))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap().WithZone(""), true
}

func containsAddr(prefixes []netip.Prefix, addr netip.Addr) bool {
	for _, prefix := range prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
