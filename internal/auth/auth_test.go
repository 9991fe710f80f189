package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

type fakeSSM struct {
	value string
	err   error
	name  string
	calls int
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls++
	f.name = aws.ToString(in.Name)
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String(f.value)}}, nil
}

func TestGetAPIKeyFromEnv(t *testing.T) {
	const testKey = "test-api-key-12345"
	t.Setenv(EnvAPIKey, testKey)

	fake := &fakeSSM{value: "from-ssm"}
	key, err := GetAPIKey(context.Background(), Options{SSMParam: "/camtrap/key", SSM: fake})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != testKey {
		t.Errorf("GetAPIKey() = %q, want %q", key, testKey)
	}
	if fake.calls != 0 {
		t.Errorf("SSM called %d times, want 0", fake.calls)
	}
}

func TestGetAPIKeyFromSSM(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv("HOME", t.TempDir())

	fake := &fakeSSM{value: " ssm-key \n"}
	key, err := GetAPIKey(context.Background(), Options{SSMParam: "/camtrap/key", SSM: fake})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "ssm-key" {
		t.Errorf("GetAPIKey() = %q, want %q", key, "ssm-key")
	}
	if fake.name != "/camtrap/key" {
		t.Errorf("parameter name = %q, want /camtrap/key", fake.name)
	}
}

func TestGetAPIKeyNoSource(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv("HOME", t.TempDir())

	_, err := GetAPIKey(context.Background(), Options{})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("GetAPIKey() error = %v, want ErrNoAPIKey", err)
	}

	fake := &fakeSSM{err: errors.New("access denied")}
	_, err = GetAPIKey(context.Background(), Options{SSMParam: "/camtrap/key", SSM: fake})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("GetAPIKey() with failing SSM error = %v, want ErrNoAPIKey", err)
	}
}

func TestGetCredentialPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := getCredentialPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(home, ".camtrap", "credentials.gpg")
	if path != want {
		t.Errorf("getCredentialPath() = %q, want %q", path, want)
	}
}

func TestGetFromGPGFileNotFound(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := getFromGPG(); err == nil {
		t.Error("expected error when credentials file does not exist")
	}
}

func TestPassphraseFilePermissions(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".camtrap")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, ".gpg-passphrase")

	if _, ok := passphraseFile(); ok {
		t.Error("passphraseFile() ok = true with no file")
	}

	if err := os.WriteFile(path, []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := passphraseFile(); ok {
		t.Error("passphraseFile() ok = true for world-readable file")
	}

	if err := os.Chmod(path, 0o600); err != nil {
		t.Fatal(err)
	}
	if got, ok := passphraseFile(); !ok || got != path {
		t.Errorf("passphraseFile() = (%q, %v), want (%q, true)", got, ok, path)
	}
}
