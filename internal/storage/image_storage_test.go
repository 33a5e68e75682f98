package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestImageStorage_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewImageStorage(dir, 1)
	if err != nil {
		t.Fatalf("NewImageStorage вернул ошибку: %v", err)
	}
	ctx := context.Background()

	content := "imagen de prueba"
	name, size, err := store.Save(ctx, 7, "taco.jpg", strings.NewReader(content))
	if err != nil {
		t.Fatalf("Save вернул ошибку: %v", err)
	}

	if size != int64(len(content)) {
		t.Fatalf("ожидали размер %d, получили %d", len(content), size)
	}
	if !strings.HasPrefix(name, "platillo_7_") || !strings.HasSuffix(name, ".jpg") {
		t.Fatalf("неожиданное имя файла: %s", name)
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("файл должен существовать: %v", err)
	}
	if string(data) != content {
		t.Fatalf("содержимое файла не совпадает")
	}

	// Временных файлов не остаётся.
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("временный файл не удалён: %s", e.Name())
		}
	}

	if err := store.Delete(ctx, name); err != nil {
		t.Fatalf("Delete вернул ошибку: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
		t.Fatalf("файл должен быть удалён")
	}
}

func TestImageStorage_SizeLimit(t *testing.T) {
	dir := t.TempDir()
	store, err := NewImageStorage(dir, 1)
	if err != nil {
		t.Fatalf("NewImageStorage вернул ошибку: %v", err)
	}
	ctx := context.Background()

	big := strings.Repeat("x", 1024*1024+1)
	if _, _, err := store.Save(ctx, 7, "grande.jpg", strings.NewReader(big)); err == nil {
		t.Fatalf("файл больше лимита должен быть отклонён")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("после отклонения не должно оставаться файлов, есть %d", len(entries))
	}
}

func TestImageStorage_SanitizesFilename(t *testing.T) {
	dir := t.TempDir()
	store, err := NewImageStorage(dir, 1)
	if err != nil {
		t.Fatalf("NewImageStorage вернул ошибку: %v", err)
	}
	ctx := context.Background()

	name, _, err := store.Save(ctx, 7, "../../etc/passwd.png", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save вернул ошибку: %v", err)
	}
	if strings.Contains(name, "..") || strings.Contains(name, "/") {
		t.Fatalf("имя файла не санитизировано: %s", name)
	}
	if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
		t.Fatalf("файл должен лежать внутри каталога хранилища: %v", err)
	}
}

func TestImageStorage_DeleteMissingIsNoop(t *testing.T) {
	dir := t.TempDir()
	store, err := NewImageStorage(dir, 1)
	if err != nil {
		t.Fatalf("NewImageStorage вернул ошибку: %v", err)
	}

	if err := store.Delete(context.Background(), "no-existe.jpg"); err != nil {
		t.Fatalf("удаление отсутствующего файла не должно быть ошибкой: %v", err)
	}
}
