package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// Config はアプリケーション全体で共有する実行時設定。
type Config struct {
	Addr                 string
	StoreBackend         string
	MongoURI             string
	MongoDatabase        string
	EventCollection      string
	SubmissionCollection string
	Timeout              time.Duration
	Timezone             string
	Location             *time.Location
	ServerLog            *logrus.Logger

	AdminEmail        string
	AdminPasswordHash string
	AdminPassword     string
	JWTSecret         []byte
	JWTIssuer         string
	TokenTTL          time.Duration

	SubmissionQuota  int
	SweepSchedule    string
	SweepGrace       time.Duration
	AllowedOrigins   []string
	TrustedProxies   []netip.Prefix
	ReportFontPath   string
	ReportPNGPages   int
	ExportDir        string
	NumericInference string
}

var defaults = map[string]any{
	"HTTP_ADDR":             ":8080",
	"STORE_BACKEND":         BackendMongo,
	"MONGO_URI":             "mongodb://mongo:27017",
	"MONGO_DB":              "form-collector",
	"EVENT_COLLECTION":      "events",
	"SUBMISSION_COLLECTION": "submissions",
	"MONGO_CONNECT_TIMEOUT": "10s",
	"TIMEZONE":              "UTC",
	"ADMIN_EMAIL":           "admin@example.com",
	"AUTH_JWT_ISSUER":       "form-collector",
	"AUTH_TOKEN_TTL":        "1h",
	"SUBMISSION_QUOTA":      2,
	"SWEEP_SCHEDULE":        "0 0 * * *",
	"SWEEP_GRACE":           "48h",
	"API_ALLOWED_ORIGINS":   "*",
	"NUMERIC_INFERENCE":     "declared",
	"REPORT_PNG_MAX_PAGES":  20,
	"LOG_LEVEL":             "info",
}

// Load は .env（任意）、設定ファイル（任意）、プロセスの環境変数の順に読み込む。
// 後に読んだものほど優先する。
func Load(configFile string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf(".env の読み込みに失敗: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
	}

	logger := NewLogger(v.GetString("LOG_LEVEL"), v.GetBool("DEBUG"))

	secret := strings.TrimSpace(v.GetString("AUTH_JWT_SECRET"))
	if secret == "" {
		return Config{}, errors.New("AUTH_JWT_SECRET must be configured")
	}

	backend := strings.ToLower(strings.TrimSpace(v.GetString("STORE_BACKEND")))
	if backend != BackendMongo && backend != BackendMemory {
		return Config{}, fmt.Errorf("STORE_BACKEND %q は未対応です", backend)
	}

	timezone := strings.TrimSpace(v.GetString("TIMEZONE"))
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Config{}, fmt.Errorf("タイムゾーン %s の読み込みに失敗: %w", timezone, err)
	}

	trusted, err := parseTrustedProxies(v.GetString("TRUSTED_PROXIES"))
	if err != nil {
		return Config{}, err
	}

	durations := map[string]time.Duration{}
	for _, key := range []string{"MONGO_CONNECT_TIMEOUT", "AUTH_TOKEN_TTL", "SWEEP_GRACE"} {
		d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return Config{}, fmt.Errorf("%s の形式が不正です: %w", key, err)
		}
		durations[key] = d
	}

	cfg := Config{
		Addr:                 v.GetString("HTTP_ADDR"),
		StoreBackend:         backend,
		MongoURI:             v.GetString("MONGO_URI"),
		MongoDatabase:        v.GetString("MONGO_DB"),
		EventCollection:      v.GetString("EVENT_COLLECTION"),
		SubmissionCollection: v.GetString("SUBMISSION_COLLECTION"),
		Timeout:              durations["MONGO_CONNECT_TIMEOUT"],
		Timezone:             timezone,
		Location:             loc,
		ServerLog:            logger,
		AdminEmail:           strings.TrimSpace(v.GetString("ADMIN_EMAIL")),
		AdminPasswordHash:    strings.TrimSpace(v.GetString("ADMIN_PASSWORD_HASH")),
		AdminPassword:        v.GetString("ADMIN_PASSWORD"),
		JWTSecret:            []byte(secret),
		JWTIssuer:            strings.TrimSpace(v.GetString("AUTH_JWT_ISSUER")),
		TokenTTL:             durations["AUTH_TOKEN_TTL"],
		SubmissionQuota:      v.GetInt("SUBMISSION_QUOTA"),
		SweepSchedule:        strings.TrimSpace(v.GetString("SWEEP_SCHEDULE")),
		SweepGrace:           durations["SWEEP_GRACE"],
		AllowedOrigins:       parseList(v.GetString("API_ALLOWED_ORIGINS"), []string{"*"}),
		TrustedProxies:       trusted,
		ReportFontPath:       strings.TrimSpace(v.GetString("REPORT_FONT_PATH")),
		ReportPNGPages:       v.GetInt("REPORT_PNG_MAX_PAGES"),
		ExportDir:            strings.TrimSpace(v.GetString("EXPORT_DIR")),
		NumericInference:     strings.TrimSpace(v.GetString("NUMERIC_INFERENCE")),
	}

	logger.WithFields(logrus.Fields{
		"addr":     cfg.Addr,
		"backend":  cfg.StoreBackend,
		"timezone": cfg.Timezone,
		"quota":    cfg.SubmissionQuota,
		"schedule": cfg.SweepSchedule,
	}).Debug("設定を読み込み")

	return cfg, nil
}

func parseList(raw string, fallback []string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}

// parseTrustedProxies は TRUSTED_PROXIES（CIDR または単一 IP のカンマ区切り）を解釈する。
// 空なら転送ヘッダーは一切信用しない。
func parseTrustedProxies(raw string) ([]netip.Prefix, error) {
	entries := parseList(raw, nil)
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES の値 %q が不正です: %w", entry, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES の値 %q が不正です: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}
