package config

import "strings"

// normalizeConfig normalizes configuration values.
func normalizeConfig(c *Config) {
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Storage.SQLiteDriver = strings.ToLower(strings.TrimSpace(c.Storage.SQLiteDriver))
	c.Checks.HTTP.Method = strings.ToUpper(strings.TrimSpace(c.Checks.HTTP.Method))
	c.Alert.Email.Host = strings.TrimRight(c.Alert.Email.Host, "/")
	c.Alert.WhatsApp.APIURL = strings.TrimRight(c.Alert.WhatsApp.APIURL, "/")
}
