package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/santinisystems/catalog/internal/auth"
	"github.com/santinisystems/catalog/internal/cache"
	"github.com/santinisystems/catalog/internal/model"
	"github.com/santinisystems/catalog/internal/repository"
)

// userStore is the slice of the repository the script needs.
type userStore interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetOrCreateUser(ctx context.Context, user *model.User) (*model.User, error)
	UpdateUserCredentials(ctx context.Context, user *model.User) error
}

// authEvictor drops cached auth contexts. *cache.Cache satisfies it.
type authEvictor interface {
	DeleteUserAuthContexts(ctx context.Context, userID int64) (int, error)
}

type output struct {
	UserID    int64      `json:"userId"`
	Email     string     `json:"email"`
	Roles     []string   `json:"roles"`
	TokenID   string     `json:"tokenId"`
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		redisURL    = flag.String("redis-url", os.Getenv("REDIS_URL"), "Redis connection string; cached logins of a reset user are evicted")
		email       = flag.String("email", "admin@catalog.local", "User email")
		password    = flag.String("password", os.Getenv("BOOTSTRAP_PASSWORD"), "User password (defaults to BOOTSTRAP_PASSWORD)")
		rolesInput  = flag.String("roles", model.RoleAdmin, "Comma-separated roles (ROLE_USER,ROLE_ADMIN)")
		reset       = flag.Bool("reset", false, "Overwrite roles and password of an existing user")
		name        = flag.String("name", "bootstrap", "Token name")
		fixed       = flag.String("token", "", "Store this plaintext token instead of generating one")
		ttl         = flag.Duration("ttl", 0, "Token lifetime (0 = no expiry)")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *password == "" {
		fmt.Fprintln(os.Stderr, "a password is required (-password or BOOTSTRAP_PASSWORD)")
		os.Exit(1)
	}

	roles, err := parseRoles(*rolesInput)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	var evictor authEvictor
	if *redisURL != "" {
		c, err := cache.New(ctx, *redisURL)
		if err != nil {
			fmt.Fprintln(os.Stderr, "connect redis:", err)
			os.Exit(1)
		}
		defer c.Close()
		evictor = c
	} else if *reset {
		fmt.Fprintln(os.Stderr, "warning: no REDIS_URL; cached logins keep their old roles for up to 5 minutes")
	}

	user, err := ensureUser(ctx, repo, evictor, *email, *password, roles, *reset)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	plaintext, hash, err := tokenMaterial(*fixed)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	now := time.Now().UTC()
	token := &model.APIToken{
		ID:        ulid.Make().String(),
		UserID:    user.ID,
		TokenHash: hash,
		Name:      *name,
		CreatedAt: now,
	}
	if *ttl > 0 {
		expires := now.Add(*ttl)
		token.ExpiresAt = &expires
	}

	if err := repo.CreateAPIToken(ctx, token); err != nil {
		fmt.Fprintln(os.Stderr, "create api token:", err)
		os.Exit(1)
	}

	out := output{
		UserID:    user.ID,
		Email:     user.Email,
		Roles:     user.EffectiveRoles(),
		TokenID:   token.ID,
		Token:     plaintext,
		ExpiresAt: token.ExpiresAt,
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.Token)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

func parseRoles(input string) ([]string, error) {
	parts := strings.Split(input, ",")
	roles := make([]string, 0, len(parts))
	for _, part := range parts {
		role := strings.ToUpper(strings.TrimSpace(part))
		if role == "" {
			continue
		}
		if !isValidRole(role) {
			return nil, fmt.Errorf("invalid role: %s", role)
		}
		roles = append(roles, role)
	}
	return roles, nil
}

func isValidRole(role string) bool {
	for _, allowed := range model.ValidRoles {
		if role == allowed {
			return true
		}
	}
	return false
}

// tokenMaterial returns the plaintext token and its stored digest.
func tokenMaterial(fixed string) (string, string, error) {
	if fixed == "" {
		generated, err := auth.GenerateAPIToken()
		if err != nil {
			return "", "", fmt.Errorf("generate api token: %w", err)
		}
		return generated.Plaintext, generated.Hash, nil
	}

	token, err := auth.NormalizeToken(fixed)
	if err != nil {
		return "", "", fmt.Errorf("invalid -token: %w", err)
	}
	return token, auth.HashToken(token), nil
}

// ensureUser returns the user for email, creating it if needed. With reset,
// an existing user gets the new roles and password and its cached auth
// contexts are evicted.
func ensureUser(ctx context.Context, repo userStore, evictor authEvictor, email, password string, roles []string, reset bool) (*model.User, error) {
	existing, err := repo.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil && !reset {
		return existing, nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if existing != nil {
		existing.Roles = roles
		existing.PasswordHash = hash
		if err := repo.UpdateUserCredentials(ctx, existing); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		if evictor != nil {
			if _, err := evictor.DeleteUserAuthContexts(ctx, existing.ID); err != nil {
				return nil, fmt.Errorf("evict cached logins: %w", err)
			}
		}
		return existing, nil
	}

	user := &model.User{
		Email:        email,
		Roles:        roles,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	created, err := repo.GetOrCreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}
