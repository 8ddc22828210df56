package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/saige-footwear/contact-relay/internal/config"
)

func baseEnv() map[string]string {
	return map[string]string{
		"SMTP_HOST":              "smtp.sendgrid.net",
		"SMTP_PORT":              "",
		"SMTP_USER":              "apikey",
		"SMTP_PASS":              "SG.secret",
		"SMTP_TIMEOUT":           "",
		"MAIL_FROM":              "web@saige.example",
		"MAIL_TO":                "sales@saige.example",
		"CORS_ALLOWED_ORIGINS":   "",
		"CONTACT_PATH":           "",
		"BODY_LIMIT_BYTES":       "",
		"AUTO_REPLY_ENABLED":     "",
		"AUTO_REPLY_MODE":        "",
		"AUTO_REPLY_TIMEOUT":     "",
		"NOTIFY_SENDER_NAME":     "",
		"AUTO_REPLY_SENDER_NAME": "",
		"PORT":                   "",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(baseEnv())
	require.NoError(t, err)

	require.Equal(t, 587, cfg.SMTP.Port)
	require.False(t, cfg.SMTP.ImplicitTLS())
	require.Equal(t, 10*time.Second, cfg.SMTP.Timeout)
	require.Equal(t, "/api/send-email", cfg.ContactPath)
	require.Equal(t, []string{"*"}, cfg.AllowedOrigins())
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "Website Contact", cfg.NotifySenderName)
	require.Equal(t, "赛格鞋业 SAIGE Footwear", cfg.AutoReplySenderName)
	require.True(t, cfg.AutoReplyEnabled)
	require.Equal(t, "async", cfg.AutoReplyMode)
	require.EqualValues(t, 64<<10, cfg.BodyLimitBytes)
}

func TestLoadImplicitTLSPort(t *testing.T) {
	env := baseEnv()
	env["SMTP_PORT"] = "465"
	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.True(t, cfg.SMTP.ImplicitTLS())
}

func TestLoadRequiresSMTPAndMailboxes(t *testing.T) {
	for _, key := range []string{"SMTP_HOST", "SMTP_USER", "SMTP_PASS", "MAIL_FROM", "MAIL_TO"} {
		t.Run(key, func(t *testing.T) {
			env := baseEnv()
			env[key] = ""
			_, err := config.LoadForTests(env)
			require.Error(t, err)
			require.Contains(t, err.Error(), key+" is required")
		})
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]struct {
		key, value, want string
	}{
		"non numeric port":  {"SMTP_PORT", "smtp", "SMTP_PORT must be numeric"},
		"port out of range": {"SMTP_PORT", "70000", "SMTP_PORT is invalid"},
		"inbox not address": {"MAIL_TO", "sales", "MAIL_TO is invalid"},
		"unknown mode":      {"AUTO_REPLY_MODE", "later", "AUTO_REPLY_MODE is invalid"},
		"relative path":     {"CONTACT_PATH", "send-email", "CONTACT_PATH is invalid"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			env := baseEnv()
			env[tc.key] = tc.value
			_, err := config.LoadForTests(env)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["CORS_ALLOWED_ORIGINS"] = "https://saige.example, https://www.saige.example"
	env["AUTO_REPLY_ENABLED"] = "false"
	env["AUTO_REPLY_MODE"] = "SYNC"
	env["PORT"] = ":9000"
	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, []string{"https://saige.example", "https://www.saige.example"}, cfg.AllowedOrigins())
	require.False(t, cfg.AutoReplyEnabled)
	require.Equal(t, "sync", cfg.AutoReplyMode)
	require.Equal(t, ":9000", cfg.HTTPAddr())
}
