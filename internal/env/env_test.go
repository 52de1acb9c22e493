package env

import (
	"reflect"
	"testing"
	"time"
)

func TestGetString(t *testing.T) {
	t.Setenv("GOOMER_TEST_STR", "value")
	if got := GetString("GOOMER_TEST_STR", "def"); got != "value" {
		t.Fatalf("got %q", got)
	}
	t.Setenv("GOOMER_TEST_STR", "")
	if got := GetString("GOOMER_TEST_STR", "def"); got != "def" {
		t.Fatalf("empty value should fall back, got %q", got)
	}
}

func TestGetInt(t *testing.T) {
	t.Setenv("GOOMER_TEST_INT", " 42 ")
	if got := GetInt("GOOMER_TEST_INT", 1); got != 42 {
		t.Fatalf("got %d", got)
	}
	t.Setenv("GOOMER_TEST_INT", "forty")
	if got := GetInt("GOOMER_TEST_INT", 1); got != 1 {
		t.Fatalf("invalid value should fall back, got %d", got)
	}
	if got := GetInt("GOOMER_TEST_INT_UNSET", 7); got != 7 {
		t.Fatalf("unset should fall back, got %d", got)
	}
}

func TestGetBoolAndDuration(t *testing.T) {
	t.Setenv("GOOMER_TEST_BOOL", "true")
	if !GetBool("GOOMER_TEST_BOOL", false) {
		t.Fatalf("expected true")
	}
	t.Setenv("GOOMER_TEST_BOOL", "maybe")
	if GetBool("GOOMER_TEST_BOOL", false) {
		t.Fatalf("invalid bool should fall back to false")
	}

	t.Setenv("GOOMER_TEST_DUR", "90s")
	if got := GetDuration("GOOMER_TEST_DUR", time.Second); got != 90*time.Second {
		t.Fatalf("got %s", got)
	}
	t.Setenv("GOOMER_TEST_DUR", "ninety")
	if got := GetDuration("GOOMER_TEST_DUR", time.Second); got != time.Second {
		t.Fatalf("invalid duration should fall back, got %s", got)
	}
}

func TestGetStrings(t *testing.T) {
	t.Setenv("GOOMER_TEST_LIST", "https://a.example, ,https://b.example")
	got := GetStrings("GOOMER_TEST_LIST", nil)
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	t.Setenv("GOOMER_TEST_LIST", " , ")
	if got := GetStrings("GOOMER_TEST_LIST", []string{"x"}); !reflect.DeepEqual(got, []string{"x"}) {
		t.Fatalf("blank list should fall back, got %v", got)
	}
}
