package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"taxsavings-backend/internal/auth"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotConfigured      = errors.New("admin auth not configured")
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUser      = errors.New("username already exists")
)

type User struct {
	ID           string    `bson:"_id" json:"id"`
	Username     string    `bson:"username" json:"username"`
	Email        string    `bson:"email,omitempty" json:"email,omitempty"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	Role         string    `bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

type UserStore interface {
	FindByUsername(ctx context.Context, username string) (User, error)
	Create(ctx context.Context, user User) error
}

type MongoUserStore struct {
	col *mongo.Collection
}

func NewMongoUserStore(col *mongo.Collection) *MongoUserStore {
	return &MongoUserStore{col: col}
}

func (s *MongoUserStore) FindByUsername(ctx context.Context, username string) (User, error) {
	var user User
	err := s.col.FindOne(ctx, bson.M{"username": username, "role": auth.RoleAdmin}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrUserNotFound
	}
	return user, err
}

func (s *MongoUserStore) Create(ctx context.Context, user User) error {
	if _, err := s.col.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateUser
		}
		return err
	}
	return nil
}

// Authenticator checks admin credentials against the users store first and
// then against the single account configured in the environment.
type Authenticator struct {
	store        UserStore
	fallbackUser string
	fallbackPass string
	now          func() time.Time
}

func NewAuthenticator(store UserStore, fallbackUser, fallbackPassword string) *Authenticator {
	return &Authenticator{
		store:        store,
		fallbackUser: fallbackUser,
		fallbackPass: fallbackPassword,
		now:          time.Now,
	}
}

func (a *Authenticator) Configured() bool {
	return a.store != nil || a.fallbackPass != ""
}

// Authenticate returns the subject to put in issued tokens.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (string, error) {
	if !a.Configured() {
		return "", ErrNotConfigured
	}
	username = normalizeUsername(username)

	if a.store != nil {
		user, err := a.store.FindByUsername(ctx, username)
		switch {
		case err == nil:
			if auth.ComparePassword(user.PasswordHash, password) != nil {
				return "", ErrInvalidCredentials
			}
			return user.ID, nil
		case !errors.Is(err, ErrUserNotFound):
			return "", err
		}
	}

	if a.fallbackPass == "" {
		return "", ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(normalizeUsername(a.fallbackUser))) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.fallbackPass)) == 1
	if !userOK || !passOK {
		return "", ErrInvalidCredentials
	}
	return a.fallbackUser, nil
}

// CreateAdmin stores a new admin account with a bcrypt hash of password.
func (a *Authenticator) CreateAdmin(ctx context.Context, username, email, password string) (User, error) {
	if a.store == nil {
		return User{}, ErrNotConfigured
	}
	if err := auth.CheckStrength(password); err != nil {
		return User{}, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, err
	}

	now := a.now()
	user := User{
		ID:           primitive.NewObjectID().Hex(),
		Username:     normalizeUsername(username),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         auth.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.Create(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

func normalizeUsername(username string) string {
	username = strings.TrimSpace(username)
	if strings.Contains(username, "@") {
		username = strings.ToLower(username)
	}
	return username
}
