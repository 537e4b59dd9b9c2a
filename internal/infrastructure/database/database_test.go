package database

import (
	"strings"
	"testing"
)

func TestMigrations_Ordered(t *testing.T) {
	files, err := Migrations()
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("expected embedded migrations")
	}
	for i := 1; i < len(files); i++ {
		if files[i-1] >= files[i] {
			t.Errorf("migrations out of order: %s before %s", files[i-1], files[i])
		}
	}
	if !strings.HasSuffix(files[0], "001_create_gateway_audit_log.sql") {
		t.Errorf("unexpected first migration %s", files[0])
	}
}

func TestConfig_DSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "explicit ssl mode",
			cfg:  Config{Host: "db", Port: 5432, Database: "dian", User: "app", Password: "pw", SSLMode: "require"},
			want: "host=db port=5432 dbname=dian user=app password=pw sslmode=require",
		},
		{
			name: "ssl mode defaults to disable",
			cfg:  Config{Host: "localhost", Port: 5433, Database: "dian", User: "app", Password: "pw"},
			want: "host=localhost port=5433 dbname=dian user=app password=pw sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.dsn(); got != tt.want {
				t.Errorf("dsn() = %q, want %q", got, tt.want)
			}
		})
	}
}
