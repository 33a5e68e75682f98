package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tacofish-app/tacofish-backend/internal/models"
	"github.com/tacofish-app/tacofish-backend/internal/phone"
	"github.com/tacofish-app/tacofish-backend/internal/pkg/apperror"
	"github.com/tacofish-app/tacofish-backend/internal/repository"
	"github.com/tacofish-app/tacofish-backend/internal/verification"
)

// mockUsuarioRepo реализует UsuarioRepo для тестов.
type mockUsuarioRepo struct {
	byTelefono map[string]*models.Usuario
	byID       map[int64]*models.Usuario
	nextID     int64
	createErr  error
}

func newMockUsuarioRepo() *mockUsuarioRepo {
	return &mockUsuarioRepo{
		byTelefono: make(map[string]*models.Usuario),
		byID:       make(map[int64]*models.Usuario),
		nextID:     1,
	}
}

func (m *mockUsuarioRepo) Create(ctx context.Context, u *models.Usuario) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.byTelefono[u.Telefono]; exists {
		return repository.ErrTelefonoDuplicado
	}
	u.ID = m.nextID
	m.nextID++
	u.CreatedAt = time.Now()
	m.byTelefono[u.Telefono] = u
	m.byID[u.ID] = u
	return nil
}

func (m *mockUsuarioRepo) GetByTelefono(ctx context.Context, telefono string) (*models.Usuario, error) {
	if u, ok := m.byTelefono[telefono]; ok {
		return u, nil
	}
	return nil, repository.ErrUsuarioNotFound
}

func (m *mockUsuarioRepo) GetByID(ctx context.Context, id int64) (*models.Usuario, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, repository.ErrUsuarioNotFound
}

// mockDispatcher записывает отправленные SMS и умеет возвращать ошибку.
type mockDispatcher struct {
	sent    []string
	bodies  []string
	sendErr error
}

func (m *mockDispatcher) Send(ctx context.Context, to, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, to)
	m.bodies = append(m.bodies, body)
	return nil
}

func newTestRegistrationService(repo *mockUsuarioRepo, store verification.Store, dispatcher *mockDispatcher) *RegistrationService {
	return NewRegistrationService(
		repo,
		store,
		dispatcher,
		NewTokenManager("secreto-de-prueba", time.Hour),
		phone.NewFormatter("+52"),
		time.Second,
	)
}

func validInput() IniciarInput {
	return IniciarInput{
		Nombre:              "Ana García",
		Telefono:            "55 1234 5678",
		Contrasena:          "secreta123",
		ConfirmarContrasena: "secreta123",
	}
}

func TestRegistrationService_IniciarSendsCode(t *testing.T) {
	repo := newMockUsuarioRepo()
	store := verification.NewMemoryStore(5*time.Minute, 3, 100)
	dispatcher := &mockDispatcher{}
	svc := newTestRegistrationService(repo, store, dispatcher)
	ctx := context.Background()

	telefono, err := svc.Iniciar(ctx, validInput())
	if err != nil {
		t.Fatalf("Iniciar вернул ошибку: %v", err)
	}

	if telefono != "+525512345678" {
		t.Fatalf("ожидали канонический телефон +525512345678, получили %s", telefono)
	}

	if len(dispatcher.sent) != 1 || dispatcher.sent[0] != "+525512345678" {
		t.Fatalf("SMS должно уйти на канонический номер, отправлено: %v", dispatcher.sent)
	}

	// Пользователь на этом шаге не создаётся.
	if len(repo.byTelefono) != 0 {
		t.Fatalf("пользователь не должен создаваться до верификации")
	}

	if store.Len(ctx) != 1 {
		t.Fatalf("ожидали одну ожидающую запись, получили %d", store.Len(ctx))
	}
}

func TestRegistrationService_IniciarValidation(t *testing.T) {
	repo := newMockUsuarioRepo()
	store := verification.NewMemoryStore(5*time.Minute, 3, 100)
	dispatcher := &mockDispatcher{}
	svc := newTestRegistrationService(repo, store, dispatcher)
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func(*IniciarInput)
		wantErr *apperror.AppError
	}{
		{
			name:    "missing nombre",
			mutate:  func(in *IniciarInput) { in.Nombre = "  " },
			wantErr: apperror.ErrMissingFields,
		},
		{
			name:    "missing telefono",
			mutate:  func(in *IniciarInput) { in.Telefono = "" },
			wantErr: apperror.ErrMissingFields,
		},
		{
			name:    "password mismatch",
			mutate:  func(in *IniciarInput) { in.ConfirmarContrasena = "otra" },
			wantErr: apperror.ErrPasswordMismatch,
		},
		{
			name:    "invalid phone",
			mutate:  func(in *IniciarInput) { in.Telefono = "12345" },
			wantErr: apperror.ErrInvalidPhone,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)

			_, err := svc.Iniciar(ctx, in)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("ожидали %v, получили %v", tc.wantErr, err)
			}
			if len(dispatcher.sent) != 0 {
				t.Fatalf("SMS не должно отправляться при ошибке валидации")
			}
		})
	}
}

func TestRegistrationService_IniciarDuplicatePhone(t *testing.T) {
	repo := newMockUsuarioRepo()
	store := verification.NewMemoryStore(5*time.Minute, 3, 100)
	dispatcher := &mockDispatcher{}
	svc := newTestRegistrationService(repo, store, dispatcher)
	ctx := context.Background()

	repo.byTelefono["+525512345678"] = &models.Usuario{ID: 1, Telefono: "+525512345678"}

	_, err := svc.Iniciar(ctx, validInput())
	if !errors.Is(err, apperror.ErrDuplicatePhone) {
		t.Fatalf("ожидали ErrDuplicatePhone, получили %v", err)
	}

	// Для занятого телефона SMS не отправляется и запись не создаётся.
	if len(dispatcher.sent) != 0 {
		t.Fatalf("SMS не должно отправляться для занятого телефона")
	}
	if store.Len(ctx) != 0 {
		t.Fatalf("запись не должна создаваться для занятого телефона")
	}
}

func TestRegistrationService_IniciarSmsFailureLeavesNoState(t *testing.T) {
	repo := newMockUsuarioRepo()
	store := verification.NewMemoryStore(5*time.Minute, 3, 100)
	dispatcher := &mockDispatcher{sendErr: apperror.ErrSmsTryLater}
	svc := newTestRegistrationService(repo, store, dispatcher)
	ctx := context.Background()

	_, err := svc.Iniciar(ctx, validInput())
	if !errors.Is(err, apperror.ErrSmsTryLater) {
		t.Fatalf("ожидали ErrSmsTryLater, получили %v", err)
	}

	if store.Len(ctx) != 0 {
		t.Fatalf("при ошибке SMS запись не должна сохраняться")
	}
}

func TestRegistrationService_VerificarSuccess(t *testing.T) {
	repo := newMockUsuarioRepo()
	store := verification.NewMemoryStore(5*time.Minute, 3, 100)
	dispatcher := &mockDispatcher{}
	svc := newTestRegistrationService(repo, store, dispatcher)
	ctx := context.Background()

	if _, err := svc.Iniciar(ctx, validInput()); err != nil {
		t.Fatalf("Iniciar вернул ошибку: %v", err)
	}

	code := extractCode(t, dispatcher.bodies[0])

	result, err := svc.Verificar(ctx, "+525512345678", code)
	if err != nil {
		t.Fatalf("Verificar вернул ошибку: %v", err)
	}

	if result.Token == "" {
		t.Fatalf("ожидали токен после верификации")
	}
	if result.Usuario.Nombre != "Ana García" {
		t.Fatalf("ожидали имя Ana García, получили %s", result.Usuario.Nombre)
	}
	if result.Usuario.TipoUsuario != models.RolCliente {
		t.Fatalf("новый пользователь должен быть клиентом, получили %s", result.Usuario.TipoUsuario)
	}

	// Пароль сохранён как bcrypt хеш, не открытым текстом.
	saved := repo.byTelefono["+525512345678"]
	if saved == nil {
		t.Fatalf("пользователь должен быть создан")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(saved.PasswordHash), []byte("secreta123")); err != nil {
		t.Fatalf("хеш пароля не совпадает с исходным паролем: %v", err)
	}

	// Повторная верификация с тем же кодом не проходит.
	if _, err := svc.Verificar(ctx, "+525512345678", code); !errors.Is(err, apperror.ErrNoPendingRegistration) {
		t.Fatalf("ожидали ErrNoPendingRegistration при повторе, получили %v", err)
	}
}

func TestRegistrationService_VerificarWrongCode(t *testing.T) {
	repo := newMockUsuarioRepo()
	store := verification.NewMemoryStore(5*time.Minute, 3, 100)
	dispatcher := &mockDispatcher{}
	svc := newTestRegistrationService(repo, store, dispatcher)
	ctx := context.Background()

	if _, err := svc.Iniciar(ctx, validInput()); err != nil {
		t.Fatalf("Iniciar вернул ошибку: %v", err)
	}

	if _, err := svc.Verificar(ctx, "+525512345678", "000000"); !errors.Is(err, apperror.ErrInvalidCode) {
		t.Fatalf("ожидали ErrInvalidCode, получили %v", err)
	}

	// Неверный код не уничтожает запись: правильный код всё ещё работает.
	code := extractCode(t, dispatcher.bodies[0])
	if _, err := svc.Verificar(ctx, "+525512345678", code); err != nil {
		t.Fatalf("верный код должен сработать после неверной попытки: %v", err)
	}
}

func TestRegistrationService_VerificarExpiredCode(t *testing.T) {
	repo := newMockUsuarioRepo()
	store := verification.NewMemoryStore(5*time.Minute, 3, 100)
	dispatcher := &mockDispatcher{}
	svc := newTestRegistrationService(repo, store, dispatcher)
	ctx := context.Background()

	// Кладём запись, выпущенную 301 секунду назад.
	_ = store.Put(ctx, "+525512345678", verification.Pending{
		Code:          "123456",
		Nombre:        "Ana",
		PasswordPlain: "secreta123",
		IssuedAt:      time.Now().Add(-301 * time.Second),
	})

	_, err := svc.Verificar(ctx, "+525512345678", "123456")
	if !errors.Is(err, apperror.ErrCodeExpired) {
		t.Fatalf("ожидали ErrCodeExpired, получили %v", err)
	}

	// Пользователь не создан, запись удалена.
	if len(repo.byTelefono) != 0 {
		t.Fatalf("пользователь не должен создаваться по протухшему коду")
	}
	if store.Len(ctx) != 0 {
		t.Fatalf("протухшая запись должна быть удалена")
	}
}

func TestRegistrationService_VerificarNoPending(t *testing.T) {
	repo := newMockUsuarioRepo()
	store := verification.NewMemoryStore(5*time.Minute, 3, 100)
	dispatcher := &mockDispatcher{}
	svc := newTestRegistrationService(repo, store, dispatcher)
	ctx := context.Background()

	_, err := svc.Verificar(ctx, "+525512345678", "123456")
	if !errors.Is(err, apperror.ErrNoPendingRegistration) {
		t.Fatalf("ожидали ErrNoPendingRegistration, получили %v", err)
	}
}

func TestRegistrationService_VerificarTooManyAttempts(t *testing.T) {
	repo := newMockUsuarioRepo()
	store := verification.NewMemoryStore(5*time.Minute, 3, 100)
	dispatcher := &mockDispatcher{}
	svc := newTestRegistrationService(repo, store, dispatcher)
	ctx := context.Background()

	if _, err := svc.Iniciar(ctx, validInput()); err != nil {
		t.Fatalf("Iniciar вернул ошибку: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.Verificar(ctx, "+525512345678", "000000"); !errors.Is(err, apperror.ErrInvalidCode) {
			t.Fatalf("попытка %d: ожидали ErrInvalidCode, получили %v", i+1, err)
		}
	}

	if _, err := svc.Verificar(ctx, "+525512345678", "000000"); !errors.Is(err, apperror.ErrTooManyAttempts) {
		t.Fatalf("ожидали ErrTooManyAttempts, получили %v", err)
	}

	// Лимит исчерпан: даже верный код требует нового запроса кода.
	code := extractCode(t, dispatcher.bodies[0])
	if _, err := svc.Verificar(ctx, "+525512345678", code); !errors.Is(err, apperror.ErrNoPendingRegistration) {
		t.Fatalf("ожидали ErrNoPendingRegistration, получили %v", err)
	}
}

func TestRegistrationService_VerificarDuplicateOnInsert(t *testing.T) {
	repo := newMockUsuarioRepo()
	store := verification.NewMemoryStore(5*time.Minute, 3, 100)
	dispatcher := &mockDispatcher{}
	svc := newTestRegistrationService(repo, store, dispatcher)
	ctx := context.Background()

	if _, err := svc.Iniciar(ctx, validInput()); err != nil {
		t.Fatalf("Iniciar вернул ошибку: %v", err)
	}

	// Кто-то занял телефон между отправкой кода и верификацией.
	repo.createErr = repository.ErrTelefonoDuplicado

	code := extractCode(t, dispatcher.bodies[0])
	if _, err := svc.Verificar(ctx, "+525512345678", code); !errors.Is(err, apperror.ErrDuplicatePhone) {
		t.Fatalf("ожидали ErrDuplicatePhone, получили %v", err)
	}
}

func TestRegistrationService_NewCodeReplacesOld(t *testing.T) {
	repo := newMockUsuarioRepo()
	store := verification.NewMemoryStore(5*time.Minute, 3, 100)
	dispatcher := &mockDispatcher{}
	svc := newTestRegistrationService(repo, store, dispatcher)
	ctx := context.Background()

	if _, err := svc.Iniciar(ctx, validInput()); err != nil {
		t.Fatalf("первый Iniciar вернул ошибку: %v", err)
	}
	if _, err := svc.Iniciar(ctx, validInput()); err != nil {
		t.Fatalf("второй Iniciar вернул ошибку: %v", err)
	}

	oldCode := extractCode(t, dispatcher.bodies[0])
	newCode := extractCode(t, dispatcher.bodies[1])

	if oldCode != newCode {
		// Старый код больше не работает.
		if _, err := svc.Verificar(ctx, "+525512345678", oldCode); !errors.Is(err, apperror.ErrInvalidCode) {
			t.Fatalf("старый код должен быть отклонён, получили %v", err)
		}
	}

	if _, err := svc.Verificar(ctx, "+525512345678", newCode); err != nil {
		t.Fatalf("новый код должен сработать: %v", err)
	}
}

// extractCode достаёт 6-значный код из текста SMS.
func extractCode(t *testing.T, body string) string {
	t.Helper()

	if len(body) < 6 {
		t.Fatalf("тело SMS слишком короткое: %q", body)
	}
	code := body[len(body)-6:]
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("не удалось извлечь код из SMS: %q", body)
		}
	}
	return code
}
