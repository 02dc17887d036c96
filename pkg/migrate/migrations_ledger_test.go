package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stakeline/stakeline-backend/pkg/migrate"
)

func TestWalletsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_wallets.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS wallets",
		"CREATE UNIQUE INDEX ux_wallets_user_asset ON wallets (user_id, asset)",
		"CREATE UNIQUE INDEX ux_wallets_user_primary ON wallets (user_id) WHERE is_primary",
		"DROP TABLE IF EXISTS wallets",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestBalanceHistoriesMigrationContainsIdempotencyIndex(t *testing.T) {
	content := readMigration(t, "*_create_balance_histories.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS balance_histories",
		"CREATE UNIQUE INDEX ux_balance_histories_operation ON balance_histories (operation_id, operation_kind)",
		"operation_kind    operation_kind_enum NOT NULL",
		"DROP TABLE IF EXISTS balance_histories",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOutboxMigrationScopesUniqueIndexToBetEvents(t *testing.T) {
	content := readMigration(t, "*_create_outbox_events.sql")

	checks := []string{
		"CREATE UNIQUE INDEX ux_outbox_events_event_aggregate",
		"WHERE event_type IN ('bet.confirmed', 'bet.refunded')",
		"WHERE published_at IS NULL",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matches %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
