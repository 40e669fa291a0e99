package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/flagx"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Pointer fields
// distinguish "absent" from a zero value so a partial file only overrides
// what it names.
type JsonConfig struct {
	HTTPAddr      *string `json:"http_addr"`
	GRPCAddr      *string `json:"grpc_addr"`
	DatabaseDSN   *string `json:"database_dsn"`
	SecretKey     *string `json:"secret_key"`
	RunMigrations *bool   `json:"run_migrations"`

	AppEnv      *string  `json:"app_env"`
	AppName     *string  `json:"app_name"`
	Domain      *string  `json:"domain"`
	CORSOrigins []string `json:"cors_origins"`

	SessionBackend *string         `json:"session_backend"`
	SessionTTL     *timex.Duration `json:"session_ttl"`
	RedisAddr      *string         `json:"redis_addr"`
	RedisPassword  *string         `json:"redis_password"`
	RedisDB        *int            `json:"redis_db"`

	PasswordMinLength     *int    `json:"password_min_length"`
	PasswordMaxLength     *int    `json:"password_max_length"`
	PasswordRequireDigit  *bool   `json:"password_require_digit"`
	PasswordRequireUpper  *bool   `json:"password_require_upper"`
	PasswordRequireLower  *bool   `json:"password_require_lower"`
	PasswordRequireSymbol *bool   `json:"password_require_symbol"`
	PasswordPattern       *string `json:"password_pattern"`
	EmailPattern          *string `json:"email_pattern"`
	BcryptCost            *int    `json:"bcrypt_cost"`

	MailBackend  *string `json:"mail_backend"`
	MailFrom     *string `json:"mail_from"`
	SMTPHost     *string `json:"smtp_host"`
	SMTPPort     *int    `json:"smtp_port"`
	SMTPUser     *string `json:"smtp_user"`
	SMTPPassword *string `json:"smtp_password"`
	SMTPTLS      *bool   `json:"smtp_tls"`

	VerifyCodeTTL *timex.Duration `json:"verify_code_ttl"`
	ResetCodeTTL  *timex.Duration `json:"reset_code_ttl"`

	S3RootUser     *string `json:"s3_root_user"`
	S3RootPassword *string `json:"s3_root_password"`
	S3Bucket       *string `json:"s3_bucket"`
	S3Region       *string `json:"s3_region"`
	S3BaseEndpoint *string `json:"s3_base_endpoint"`

	LogBackend *string `json:"log_backend"`
	LogLevel   *string `json:"log_level"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}

// parseJson loads the file named by -c / -config (if any) and overlays it on
// config. Unreadable files or invalid JSON panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	set(&config.HTTPAddr, c.HTTPAddr)
	set(&config.GRPCAddr, c.GRPCAddr)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.SecretKey, c.SecretKey)
	set(&config.RunMigrations, c.RunMigrations)

	set(&config.AppEnv, c.AppEnv)
	set(&config.AppName, c.AppName)
	set(&config.Domain, c.Domain)
	if c.CORSOrigins != nil {
		config.CORSOrigins = c.CORSOrigins
	}

	set(&config.SessionBackend, c.SessionBackend)
	setDuration(&config.SessionTTL, c.SessionTTL)
	set(&config.RedisAddr, c.RedisAddr)
	set(&config.RedisPassword, c.RedisPassword)
	set(&config.RedisDB, c.RedisDB)

	set(&config.PasswordMinLength, c.PasswordMinLength)
	set(&config.PasswordMaxLength, c.PasswordMaxLength)
	set(&config.PasswordRequireDigit, c.PasswordRequireDigit)
	set(&config.PasswordRequireUpper, c.PasswordRequireUpper)
	set(&config.PasswordRequireLower, c.PasswordRequireLower)
	set(&config.PasswordRequireSymbol, c.PasswordRequireSymbol)
	set(&config.PasswordPattern, c.PasswordPattern)
	set(&config.EmailPattern, c.EmailPattern)
	set(&config.BcryptCost, c.BcryptCost)

	set(&config.MailBackend, c.MailBackend)
	set(&config.MailFrom, c.MailFrom)
	set(&config.SMTPHost, c.SMTPHost)
	set(&config.SMTPPort, c.SMTPPort)
	set(&config.SMTPUser, c.SMTPUser)
	set(&config.SMTPPassword, c.SMTPPassword)
	set(&config.SMTPTLS, c.SMTPTLS)

	setDuration(&config.VerifyCodeTTL, c.VerifyCodeTTL)
	setDuration(&config.ResetCodeTTL, c.ResetCodeTTL)

	set(&config.S3RootUser, c.S3RootUser)
	set(&config.S3RootPassword, c.S3RootPassword)
	set(&config.S3Bucket, c.S3Bucket)
	set(&config.S3Region, c.S3Region)
	set(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	set(&config.LogBackend, c.LogBackend)
	set(&config.LogLevel, c.LogLevel)
}
