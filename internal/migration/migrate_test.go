package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santinisystems/catalog/migrations"
)

func TestEmbeddedMigrations_ArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}

	require.NotEmpty(t, ups)
	assert.Equal(t, ups, downs, "every up migration needs a down migration")
}

func TestOwnerMigration_IsReversible(t *testing.T) {
	up, err := fs.ReadFile(migrations.FS, "000004_product_owner.up.sql")
	require.NoError(t, err)
	down, err := fs.ReadFile(migrations.FS, "000004_product_owner.down.sql")
	require.NoError(t, err)

	assert.Contains(t, string(up), "ADD COLUMN owner_id INT DEFAULT NULL")
	assert.Contains(t, string(up), "REFERENCES users (id)")
	assert.Contains(t, string(up), "CREATE INDEX idx_products_owner_id")

	assert.Contains(t, string(down), "DROP CONSTRAINT fk_products_owner_id")
	assert.Contains(t, string(down), "DROP INDEX idx_products_owner_id")
	assert.Contains(t, string(down), "DROP COLUMN owner_id")
}
