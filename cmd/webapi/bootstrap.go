package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/amicimag/chapterdesk/pkg/auth"
	"github.com/amicimag/chapterdesk/pkg/countries"
	"github.com/amicimag/chapterdesk/pkg/users"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// seedData mirrors the YAML seed file layout; it provides the first administrator
// and an optional list of countries so a fresh deployment is usable without manual SQL.
type seedData struct {
	Admin struct {
		Username string `yaml:"username"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	} `yaml:"admin"`
	Countries []struct {
		Name string `yaml:"name"`
		Code string `yaml:"code"`
	} `yaml:"countries"`
}

// applySeed populates an empty database from the given YAML file.
// Databases that already contain users are left untouched.
func applySeed(logger *logrus.Logger, path string, ur users.UserRepository, cr countries.CountryRepository) error {

	count, err := ur.Count()
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if count > 0 {
		logger.Debugf("skipping seed file %s, users exist", path)
		return nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}

	var seed seedData
	if err = yaml.Unmarshal(contents, &seed); err != nil {
		return fmt.Errorf("parsing seed file: %w", err)
	}

	for _, country := range seed.Countries {
		if _, err = cr.Add(countries.CountryData{Name: country.Name, Code: country.Code}); err != nil {
			// duplicate entries in the seed file are tolerated
			if errors.Is(err, countries.ErrNameTaken) || errors.Is(err, countries.ErrCodeTaken) {
				logger.Warnf("skipping duplicate seed country %s", country.Name)
				continue
			}
			return fmt.Errorf("seeding country %s: %w", country.Name, err)
		}
		logger.Infof("seeded country %s (%s)", country.Name, country.Code)
	}

	admin := users.AddUserData{
		Username: seed.Admin.Username,
		Email:    seed.Admin.Email,
		Password: seed.Admin.Password,
		Role:     auth.RoleAdmin,
	}
	if err = admin.Validate(); err != nil {
		return fmt.Errorf("invalid seed administrator: %w", err)
	}
	if _, err = ur.Add(admin, ""); err != nil {
		return fmt.Errorf("seeding administrator: %w", err)
	}

	logger.Infof("seeded administrator %s", admin.Username)
	return nil
}
