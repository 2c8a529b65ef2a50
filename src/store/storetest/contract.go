// Package storetest holds the behaviour every TableStore implementation must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/dolarhistorico/src/apperrors"
	"github.com/username/dolarhistorico/src/models"
	"github.com/username/dolarhistorico/src/store"
)

// Run exercises a fresh store returned by newStore.
func Run(t *testing.T, newStore func(t *testing.T) store.TableStore) {
	ctx := context.Background()

	t.Run("missing sheet", func(t *testing.T) {
		s := newStore(t)
		ok, err := s.HasSheet(ctx, "Nope")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = s.LastRow(ctx, "Nope")
		assert.ErrorIs(t, err, apperrors.ErrSheetMissing)
		_, err = s.ReadRange(ctx, "Nope", 1, 10)
		assert.ErrorIs(t, err, apperrors.ErrSheetMissing)
		err = s.AppendRows(ctx, "Nope", []models.Row{{"x"}})
		assert.ErrorIs(t, err, apperrors.ErrSheetMissing)
	})

	t.Run("header and append", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureSheet(ctx, "Hoja", models.Row{"Fecha", "Valor"}))
		require.NoError(t, s.EnsureSheet(ctx, "Hoja", models.Row{"Otro"}))

		last, err := s.LastRow(ctx, "Hoja")
		require.NoError(t, err)
		assert.Equal(t, 1, last)

		require.NoError(t, s.AppendRows(ctx, "Hoja", []models.Row{{"b", int64(2)}, {"a", int64(1), true}}))
		last, err = s.LastRow(ctx, "Hoja")
		require.NoError(t, err)
		assert.Equal(t, 3, last)

		cols, err := s.LastColumn(ctx, "Hoja")
		require.NoError(t, err)
		assert.Equal(t, 3, cols)

		rows, err := s.ReadRange(ctx, "Hoja", 1, 100)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, models.Row{"Fecha", "Valor"}, rows[0])
		assert.Equal(t, models.Row{"a", int64(1), true}, rows[2])
	})

	t.Run("typed cells survive", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureSheet(ctx, "Tipos", nil))
		when := time.Date(2024, time.March, 15, 17, 57, 0, 0, time.UTC)
		row := models.Row{"texto", int64(4521), 1.5, false, when, nil}
		require.NoError(t, s.AppendRows(ctx, "Tipos", []models.Row{row}))

		rows, err := s.ReadRange(ctx, "Tipos", 1, 1)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		got := rows[0]
		require.Len(t, got, 6)
		assert.Equal(t, "texto", got[0])
		assert.Equal(t, int64(4521), got[1])
		assert.Equal(t, 1.5, got[2])
		assert.Equal(t, false, got[3])
		gotTime, ok := got[4].(time.Time)
		require.True(t, ok)
		assert.True(t, when.Equal(gotTime))
		assert.Nil(t, got[5])
	})

	t.Run("write range overwrites and grows", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureSheet(ctx, "Hoja", models.Row{"h"}))
		require.NoError(t, s.AppendRows(ctx, "Hoja", []models.Row{{"1"}, {"2"}}))
		require.NoError(t, s.WriteRange(ctx, "Hoja", 3, []models.Row{{"dos"}, {"tres"}}))

		rows, err := s.ReadRange(ctx, "Hoja", 2, 4)
		require.NoError(t, err)
		assert.Equal(t, []models.Row{{"1"}, {"dos"}, {"tres"}}, rows)
	})

	t.Run("delete rows shifts up", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureSheet(ctx, "Hoja", models.Row{"h"}))
		require.NoError(t, s.AppendRows(ctx, "Hoja", []models.Row{{"1"}, {"2"}, {"3"}, {"4"}}))
		require.NoError(t, s.DeleteRows(ctx, "Hoja", 3, 2))

		rows, err := s.ReadRange(ctx, "Hoja", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, []models.Row{{"h"}, {"1"}, {"4"}}, rows)
	})

	t.Run("sort range keeps header", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureSheet(ctx, "Hoja", models.Row{"z-header"}))
		require.NoError(t, s.AppendRows(ctx, "Hoja", []models.Row{{"c"}, {"a"}, {"b"}}))
		err := s.SortRange(ctx, "Hoja", 2, func(a, b models.Row) bool {
			return a[0].(string) < b[0].(string)
		})
		require.NoError(t, err)

		rows, err := s.ReadRange(ctx, "Hoja", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, []models.Row{{"z-header"}, {"a"}, {"b"}, {"c"}}, rows)
	})

	t.Run("invalid row index", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureSheet(ctx, "Hoja", nil))
		assert.Error(t, s.WriteRange(ctx, "Hoja", 0, []models.Row{{"x"}}))
		_, err := s.ReadRange(ctx, "Hoja", 0, 1)
		assert.Error(t, err)
	})
}
