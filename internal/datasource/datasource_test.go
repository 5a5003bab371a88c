package datasource

import (
	"testing"

	"github.com/JonMunkholm/reports/internal/config"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		driver  string
		wantErr bool
	}{
		{driver: "pgx"},
		{driver: ""},
		{driver: "sql"},
		{driver: "oracle", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			c, err := Open(config.DataSourceConfig{Driver: tt.driver, SQLDriver: "pgx", MaxConns: 2})
			if tt.wantErr {
				if err == nil {
					t.Fatal("Open() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if err := c.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
	}
}
