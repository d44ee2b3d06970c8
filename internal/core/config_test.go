package core

import "testing"

func TestConfig_DatabaseDSN(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Engine = "postgres"
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.Name = "testdb"
	cfg.Database.Username = "testuser"
	cfg.Database.Password = "testpassword"
	cfg.Database.SSLMode = "disable"

	dsn := cfg.DatabaseDSN()
	expected := "host=localhost port=5432 dbname=testdb user=testuser password=testpassword sslmode=disable"
	if dsn != expected {
		t.Errorf("DatabaseDSN() want = %s, got = %s", expected, dsn)
	}
}

func TestConfig_GameServerAddress(t *testing.T) {
	cfg := &Config{Hostname: "127.0.0.1"}
	cfg.GameServer.Port = 5555

	addr := cfg.GameServerAddress()
	expected := "127.0.0.1:5555"
	if addr != expected {
		t.Errorf("GameServerAddress() want = %s, got = %s", expected, addr)
	}
}
