package config_test

import (
	"testing"
	"time"

	"github.com/Amund211/staticstr/internal/config"
	"github.com/stretchr/testify/require"
)

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

func TestGetConfig(t *testing.T) {
	compareEnv := func(env environment, conf config.Config) {
		t.Helper()
		require.Equal(t, env == production, conf.IsProduction())
		require.Equal(t, env == staging, conf.IsStaging())
		require.Equal(t, env == development, conf.IsDevelopment())
	}

	t.Run("ensure base environment is clean", func(t *testing.T) {
		t.Run("environment is missing", func(t *testing.T) {
			// STATICSTR_ENVIRONMENT is required, so this should fail
			_, err := config.ConfigFromEnv()
			require.ErrorIs(t, err, config.ErrMissingRequiredValue)
		})

		t.Run("development environment uses defaults", func(t *testing.T) {
			t.Setenv("STATICSTR_ENVIRONMENT", "development")

			conf, err := config.ConfigFromEnv()
			require.NoError(t, err)
			compareEnv(development, conf)
			require.Equal(t, "", conf.SentryDSN())
			require.Equal(t, "", conf.GCPProject())
			require.Equal(t, "8080", conf.Port())
			require.False(t, conf.OTelEnabled())
			require.Equal(t, 8, conf.StressWorkers())
			require.Equal(t, 1000, conf.StressOpsPerSecond())
			require.Equal(t, 30*time.Second, conf.StressDuration())
			require.Equal(t, 256, conf.StressDistinctValues())
		})
	})

	t.Run("values are read correctly", func(t *testing.T) {
		t.Setenv("SENTRY_DSN", "SENTRY_DSN")
		t.Setenv("GCP_PROJECT", "GCP_PROJECT")
		t.Setenv("PORT", "1234")
		t.Setenv("OTEL_ENABLED", "true")
		t.Setenv("STRESS_WORKERS", "3")
		t.Setenv("STRESS_OPS_PER_SECOND", "50")
		t.Setenv("STRESS_DURATION", "2m")
		t.Setenv("STRESS_DISTINCT_VALUES", "7")

		for _, env := range []environment{production, staging, development} {
			t.Run(string(env), func(t *testing.T) {
				t.Setenv("STATICSTR_ENVIRONMENT", string(env))

				conf, err := config.ConfigFromEnv()
				require.NoError(t, err)
				compareEnv(env, conf)
				require.Equal(t, "SENTRY_DSN", conf.SentryDSN())
				require.Equal(t, "GCP_PROJECT", conf.GCPProject())
				require.Equal(t, "1234", conf.Port())
				require.True(t, conf.OTelEnabled())
				require.Equal(t, 3, conf.StressWorkers())
				require.Equal(t, 50, conf.StressOpsPerSecond())
				require.Equal(t, 2*time.Minute, conf.StressDuration())
				require.Equal(t, 7, conf.StressDistinctValues())
				require.Contains(t, conf.NonSensitiveString(), string(env))
				require.NotContains(t, conf.NonSensitiveString(), "SENTRY_DSN")
			})
		}
	})

	t.Run("production and staging fail when missing sentry dsn", func(t *testing.T) {
		for _, env := range []environment{production, staging} {
			t.Run(string(env), func(t *testing.T) {
				t.Setenv("STATICSTR_ENVIRONMENT", string(env))
				t.Setenv("SENTRY_DSN", "")

				_, err := config.ConfigFromEnv()
				require.ErrorIs(t, err, config.ErrMissingRequiredValue)
			})
		}
	})

	t.Run("invalid environment", func(t *testing.T) {
		for _, env := range []string{"", "invalid", "my-env"} {
			t.Run(env, func(t *testing.T) {
				t.Setenv("STATICSTR_ENVIRONMENT", env)
				_, err := config.ConfigFromEnv()
				require.ErrorIs(t, err, config.ErrInvalidValue)
			})
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		cases := []struct {
			key   string
			value string
		}{
			{key: "OTEL_ENABLED", value: "maybe"},
			{key: "STRESS_WORKERS", value: "0"},
			{key: "STRESS_WORKERS", value: "many"},
			{key: "STRESS_OPS_PER_SECOND", value: "-1"},
			{key: "STRESS_DISTINCT_VALUES", value: "1.5"},
			{key: "STRESS_DURATION", value: "soon"},
			{key: "STRESS_DURATION", value: "-1s"},
		}

		for _, tc := range cases {
			t.Run(tc.key+"="+tc.value, func(t *testing.T) {
				t.Setenv("STATICSTR_ENVIRONMENT", "development")
				t.Setenv(tc.key, tc.value)

				_, err := config.ConfigFromEnv()
				require.ErrorIs(t, err, config.ErrInvalidValue)
			})
		}
	})
}
