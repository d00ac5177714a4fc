package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dbconfig "github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/config"
)

func TestConnectionString_Defaults(t *testing.T) {
	dsn := ConnectionString(dbconfig.DatabaseConfig{Host: "db", User: "sync", Password: "pw", Database: "boxscore"})
	assert.Equal(t, "host=db port=5432 user=sync password=pw dbname=boxscore sslmode=disable TimeZone=UTC", dsn)
}
