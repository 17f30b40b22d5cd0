// Package repotest holds the behavior every domain.UserRepository must show.
package repotest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Lsoni680/ai-chatbot-new/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises repo against the store contract. Identifiers are randomized
// so the suite can run against a shared database.
func Run(t *testing.T, repo domain.UserRepository) {
	t.Helper()
	ctx := context.Background()

	id := func(name string) string {
		return fmt.Sprintf("%s-%s@x.com", name, uuid.NewString()[:8])
	}

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, repo.Ping(ctx))
	})

	t.Run("find missing", func(t *testing.T) {
		_, err := repo.Find(ctx, id("missing"))
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("create and find", func(t *testing.T) {
		ident := id("create")
		created, err := repo.Create(ctx, ident, "hash")
		require.NoError(t, err)
		assert.Equal(t, ident, created.Identifier)
		assert.NotEqual(t, uuid.Nil, created.ID)

		found, err := repo.Find(ctx, ident)
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, "hash", found.SecretHash)
		assert.Empty(t, found.History)
	})

	t.Run("duplicate", func(t *testing.T) {
		ident := id("dup")
		_, err := repo.Create(ctx, ident, "hash")
		require.NoError(t, err)

		_, err = repo.Create(ctx, ident, "other")
		assert.ErrorIs(t, err, domain.ErrDuplicateUser)

		found, err := repo.Find(ctx, ident)
		require.NoError(t, err)
		assert.Equal(t, "hash", found.SecretHash)
	})

	t.Run("concurrent create", func(t *testing.T) {
		ident := id("race")
		const callers = 8

		var wg sync.WaitGroup
		errs := make([]error, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = repo.Create(ctx, ident, "hash")
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, domain.ErrDuplicateUser)
		}
		assert.Equal(t, 1, succeeded)
	})

	t.Run("history order", func(t *testing.T) {
		ident := id("history")
		_, err := repo.Create(ctx, ident, "hash")
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			require.NoError(t, repo.AppendExchange(ctx, ident, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)))
		}
		require.NoError(t, repo.AppendExchange(ctx, ident, "empty reply", ""))

		history, err := repo.History(ctx, ident)
		require.NoError(t, err)
		require.Len(t, history, 4)
		for i := 0; i < 3; i++ {
			assert.Equal(t, fmt.Sprintf("q%d", i), history[i].Prompt)
			assert.Equal(t, fmt.Sprintf("a%d", i), history[i].Reply)
			assert.WithinDuration(t, time.Now(), history[i].CreatedAt, time.Minute)
		}
		assert.Equal(t, "", history[3].Reply)

		found, err := repo.Find(ctx, ident)
		require.NoError(t, err)
		assert.Len(t, found.History, 4)
	})

	t.Run("unknown user", func(t *testing.T) {
		ident := id("ghost")
		assert.NoError(t, repo.AppendExchange(ctx, ident, "hi", "hello"))
		assert.ErrorIs(t, repo.UpdateSecret(ctx, ident, "hash"), domain.ErrUserNotFound)

		history, err := repo.History(ctx, ident)
		require.NoError(t, err)
		assert.NotNil(t, history)
		assert.Empty(t, history)

		_, err = repo.Find(ctx, ident)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("update secret", func(t *testing.T) {
		ident := id("reset")
		_, err := repo.Create(ctx, ident, "old")
		require.NoError(t, err)

		require.NoError(t, repo.UpdateSecret(ctx, ident, "new"))

		found, err := repo.Find(ctx, ident)
		require.NoError(t, err)
		assert.Equal(t, "new", found.SecretHash)
	})
}
