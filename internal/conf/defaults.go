package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig sets viper defaults for every configuration parameter.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "triage")

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")

	viper.SetDefault("database.sqlite.enabled", true)
	viper.SetDefault("database.sqlite.path", "triage.db")
	viper.SetDefault("database.mysql.enabled", false)
	viper.SetDefault("database.mysql.username", "triage")
	viper.SetDefault("database.mysql.password", "")
	viper.SetDefault("database.mysql.database", "triage")
	viper.SetDefault("database.mysql.host", "localhost")
	viper.SetDefault("database.mysql.port", "3306")

	viper.SetDefault("simbad.baseurl", "https://simbad.cds.unistra.fr/simbad/sim-tap")
	viper.SetDefault("simbad.timeout", 30*time.Second)
	viper.SetDefault("simbad.cachettl", time.Hour)
	viper.SetDefault("simbad.ratelimitms", 250)

	viper.SetDefault("search.pagesize", 25)
	viper.SetDefault("search.defaultradiusarcmin", 2.0)
	viper.SetDefault("search.adaptertimeout", 20*time.Second)
	viper.SetDefault("search.boundsttl", time.Minute)
	viper.SetDefault("search.sessionttl", 12*time.Hour)
}

// defaultConfigYAML returns the config file template written on first run.
func defaultConfigYAML() string {
	return `# triage configuration

debug: false

main:
  name: triage

webserver:
  enabled: true
  port: "8080"

database:
  sqlite:
    enabled: true
    path: triage.db
  mysql:
    enabled: false
    username: triage
    password: ""
    database: triage
    host: localhost
    port: "3306"

simbad:
  baseurl: https://simbad.cds.unistra.fr/simbad/sim-tap
  timeout: 30s
  cachettl: 1h
  ratelimitms: 250

search:
  pagesize: 25
  defaultradiusarcmin: 2.0
  adaptertimeout: 20s
  boundsttl: 1m
  sessionttl: 12h
`
}
