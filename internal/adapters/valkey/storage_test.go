package valkey

import (
	"testing"

	"github.com/gofiber/fiber/v2"
)

var _ fiber.Storage = (*Storage)(nil)

func TestStorageKeyPrefix(t *testing.T) {
	s := &Storage{prefix: "parkfinder:limiter:"}
	if got := s.key("10.0.0.1"); got != "parkfinder:limiter:10.0.0.1" {
		t.Errorf("key = %q", got)
	}
}

func TestStorageIgnoresEmptyKeys(t *testing.T) {
	s := &Storage{prefix: "p:"}
	if b, err := s.Get(""); b != nil || err != nil {
		t.Errorf("Get(\"\") = %v, %v", b, err)
	}
	if err := s.Set("", []byte("1"), 0); err != nil {
		t.Errorf("Set(\"\") = %v", err)
	}
	if err := s.Delete(""); err != nil {
		t.Errorf("Delete(\"\") = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
