// Command seed bootstraps an empty database: it applies the schema,
// creates the administrator account and, when the catalog is empty,
// inserts a few sample books.  Running it again changes nothing.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/audiobook-library/internal/config"
	"github.com/iliyamo/audiobook-library/internal/database"
	"github.com/iliyamo/audiobook-library/internal/model"
	"github.com/iliyamo/audiobook-library/internal/repository"
	"github.com/iliyamo/audiobook-library/internal/utils"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	seed := config.LoadSeed()
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.Open(ctx, cfg.Database())
	if err != nil {
		log.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Error("migrate", "err", err)
		os.Exit(1)
	}

	now := time.Now().UTC().Truncate(time.Second)
	if err := seedAdmin(ctx, repository.NewUserRepo(db), utils.NewPasswordHasher(cfg.BcryptCost), seed, now, log); err != nil {
		log.Error("seed admin", "err", err)
		os.Exit(1)
	}
	if seed.SampleBooks {
		if err := seedBooks(ctx, repository.NewBookRepo(db), now, log); err != nil {
			log.Error("seed books", "err", err)
			os.Exit(1)
		}
	}
	log.Info("seed complete")
}

func seedAdmin(ctx context.Context, users *repository.UserRepo, hasher *utils.PasswordHasher, s config.SeedConfig, now time.Time, log *slog.Logger) error {
	existing, err := users.GetByEmail(ctx, s.AdminEmail)
	switch {
	case err == nil:
		if existing.Role != model.RoleAdmin {
			log.Warn("account exists without ADMIN role; left unchanged", "email", existing.Email)
		} else {
			log.Info("admin already present", "id", existing.ID)
		}
		return nil
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}

	hash, err := hasher.Hash(s.AdminPassword)
	if err != nil {
		return err
	}
	name := s.AdminName
	u := model.User{
		ID:           uuid.NewString(),
		Email:        s.AdminEmail,
		PasswordHash: hash,
		Username:     &name,
		Role:         model.RoleAdmin,
		CreatedAt:    now,
	}
	if err := users.Create(ctx, &u); err != nil {
		return err
	}
	log.Info("admin created", "id", u.ID, "email", u.Email)
	return nil
}

func seedBooks(ctx context.Context, books *repository.BookRepo, now time.Time, log *slog.Logger) error {
	n, err := books.Count(ctx, repository.BookFilter{})
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info("catalog not empty; sample books skipped", "books", n)
		return nil
	}
	for i, b := range sampleBooks() {
		b.ID = uuid.NewString()
		// Spread creation times so that "new releases" has a stable order.
		b.CreatedAt = now.Add(time.Duration(i) * time.Second)
		b.UpdatedAt = b.CreatedAt
		b.IsPublished = true
		if err := books.Create(ctx, &b); err != nil {
			return err
		}
		log.Info("book created", "title", b.Title)
	}
	return nil
}

func sampleBooks() []model.Book {
	str := func(s string) *string { return &s }
	return []model.Book{
		{
			Title:          "Dune",
			Author:         "Frank Herbert",
			CoverImage:     "https://images.unsplash.com/photo-1603284569248-821525309698",
			Duration:       "21h 8m",
			Rating:         4.8,
			Category:       str("Sci-Fi"),
			Description:    "Set on the desert planet Arrakis, Dune is the story of Paul Atreides, heir to a noble family tasked with ruling an inhospitable world whose only treasure is the spice melange.",
			Narrator:       str("Scott Brick"),
			AdditionalText: str("Winner of the 1966 Hugo Award for Best Novel."),
			Reviews:        12475,
			PreviewFile:    str("https://example.com/audio/dune-preview.mp3"),
			AudioFile:      str("https://example.com/audio/dune.mp3"),
		},
		{
			Title:       "Atomic Habits",
			Author:      "James Clear",
			CoverImage:  "https://images.unsplash.com/photo-1544716278-ca5e3f4abd8c",
			Duration:    "5h 35m",
			Rating:      4.9,
			Category:    str("Self-Help"),
			Description: "A proven framework for improving every day: how to form good habits, break bad ones and master the tiny behaviors that lead to remarkable results.",
			Narrator:    str("James Clear"),
			Reviews:     8976,
			PreviewFile: str("https://example.com/audio/atomic-habits-preview.mp3"),
			AudioFile:   str("https://example.com/audio/atomic-habits.mp3"),
		},
	}
}
