package config

import (
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// GetAllSettings returns the non-secret settings currently loaded in memory.
func GetAllSettings() map[string]any {
	if Global == nil {
		return map[string]any{}
	}
	return map[string]any{
		"app_version":                    Global.App.Version,
		"app_debug":                      Global.App.Debug,
		"uazapi_base_url":                Global.Gateway.BaseURL,
		"campaign_default_delay_min":     Global.Campaign.DefaultDelayMin,
		"campaign_default_delay_max":     Global.Campaign.DefaultDelayMax,
		"campaign_completion_grace":      Global.Campaign.CompletionGrace.String(),
		"campaign_active_window":         Global.Campaign.ActiveWindow.String(),
		"campaign_long_running_after":    Global.Campaign.LongRunningAfter.String(),
		"campaign_long_running_progress": Global.Campaign.LongRunningProgress,
		"campaign_stuck_after":           Global.Campaign.StuckAfter.String(),
		"campaign_stuck_progress":        Global.Campaign.StuckProgress,
		"campaign_abandoned_after":       Global.Campaign.AbandonedAfter.String(),
		"blacklist_storage":              Global.Blacklist.Storage,
	}
}

// Helpers
func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(viper.GetString(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := getEnv(key, ""); v != "" {
		if n, err := cast.ToIntE(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := getEnv(key, ""); v != "" {
		if n, err := cast.ToFloat64E(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := getEnv(key, ""); v != "" {
		vLower := strings.ToLower(v)
		return vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90m") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := cast.ToInt64E(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
