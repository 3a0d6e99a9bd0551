package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/c14220110/rekap-billing/internal/laporan/models"
)

// MatchSetSource menyimpan dan mengambil isi mentah file match-set berdasarkan nama.
type MatchSetSource interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, content []byte) error
}

// CleanMatchSetName membuang komponen path dari nama file unggahan.
func CleanMatchSetName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	base := filepath.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}

const redisKeyPrefix = "rekap-billing:matchset:"

// RedisMatchSetSource menyimpan file match-set di Redis dengan TTL.
type RedisMatchSetSource struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisMatchSetSource(client *redis.Client, ttl time.Duration) *RedisMatchSetSource {
	return &RedisMatchSetSource{Client: client, TTL: ttl}
}

func (s *RedisMatchSetSource) Load(ctx context.Context, name string) ([]byte, error) {
	clean := CleanMatchSetName(name)
	if clean == "" {
		return nil, &models.MatchSetNotFoundError{Name: name}
	}
	b, err := s.Client.Get(ctx, redisKeyPrefix+clean).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, &models.MatchSetNotFoundError{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("redis get match-set %s: %w", clean, err)
	}
	return b, nil
}

func (s *RedisMatchSetSource) Save(ctx context.Context, name string, content []byte) error {
	clean := CleanMatchSetName(name)
	if clean == "" {
		return fmt.Errorf("nama match-set kosong")
	}
	if err := s.Client.Set(ctx, redisKeyPrefix+clean, content, s.TTL).Err(); err != nil {
		return fmt.Errorf("redis set match-set %s: %w", clean, err)
	}
	return nil
}

// DirMatchSetSource membaca dan menulis file match-set di satu folder lokal.
type DirMatchSetSource struct {
	Dir string
}

func NewDirMatchSetSource(dir string) *DirMatchSetSource {
	return &DirMatchSetSource{Dir: dir}
}

func (s *DirMatchSetSource) Load(_ context.Context, name string) ([]byte, error) {
	clean := CleanMatchSetName(name)
	if clean == "" {
		return nil, &models.MatchSetNotFoundError{Name: name}
	}
	b, err := os.ReadFile(filepath.Join(s.Dir, clean))
	if errors.Is(err, os.ErrNotExist) {
		return nil, &models.MatchSetNotFoundError{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("baca match-set %s: %w", clean, err)
	}
	return b, nil
}

func (s *DirMatchSetSource) Save(_ context.Context, name string, content []byte) error {
	clean := CleanMatchSetName(name)
	if clean == "" {
		return fmt.Errorf("nama match-set kosong")
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("buat folder match-set: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir, clean), content, 0o644); err != nil {
		return fmt.Errorf("tulis match-set %s: %w", clean, err)
	}
	return nil
}
