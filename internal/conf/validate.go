package conf

import (
	"errors"
	"fmt"
	"strconv"
)

// ValidateSettings checks the loaded configuration for inconsistencies.
func ValidateSettings(settings *Settings) error {
	var errs []error

	if settings.Database.SQLite.Enabled && settings.Database.MySQL.Enabled {
		errs = append(errs, errors.New("only one of database.sqlite and database.mysql may be enabled"))
	}
	if !settings.Database.SQLite.Enabled && !settings.Database.MySQL.Enabled {
		errs = append(errs, errors.New("one of database.sqlite and database.mysql must be enabled"))
	}
	if settings.Database.SQLite.Enabled && settings.Database.SQLite.Path == "" {
		errs = append(errs, errors.New("database.sqlite.path must not be empty"))
	}

	if settings.WebServer.Enabled {
		if port, err := strconv.Atoi(settings.WebServer.Port); err != nil || port < 1 || port > 65535 {
			errs = append(errs, fmt.Errorf("webserver.port must be a valid port number, got %q", settings.WebServer.Port))
		}
	}

	if settings.Simbad.BaseURL == "" {
		errs = append(errs, errors.New("simbad.baseurl must not be empty"))
	}

	switch settings.Search.PageSize {
	case 25, 50:
	default:
		errs = append(errs, fmt.Errorf("search.pagesize must be 25 or 50, got %d", settings.Search.PageSize))
	}
	if settings.Search.DefaultRadiusArcmin <= 0 {
		errs = append(errs, fmt.Errorf("search.defaultradiusarcmin must be positive, got %g", settings.Search.DefaultRadiusArcmin))
	}
	if settings.Search.AdapterTimeout <= 0 {
		errs = append(errs, errors.New("search.adaptertimeout must be positive"))
	}

	return errors.Join(errs...)
}
