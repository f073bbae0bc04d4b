package db

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
)

func TestWrapUniqueViolation(t *testing.T) {
	dup := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505", ConstraintName: "tags_name_key"})

	err := wrapUniqueViolation(dup)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	assert.Contains(t, err.Error(), "tags_name_key")

	check := &pgconn.PgError{Code: "23514", ConstraintName: "tag_associations_confidence_check"}
	assert.NotErrorIs(t, wrapUniqueViolation(check), apperrors.ErrDuplicate)

	plain := errors.New("connection reset")
	assert.Equal(t, plain, wrapUniqueViolation(plain))
}

func TestUUIDRoundTrip(t *testing.T) {
	const id = "0d9c4c6e-7d0a-4b6b-9a51-2f6b2a9e8c11"

	assert.Equal(t, id, fromUUID(toUUID(id)))
	assert.False(t, toUUID("not-a-uuid").Valid)
	assert.Empty(t, fromUUID(pgtype.UUID{}))
}

func TestNullableConversions(t *testing.T) {
	assert.False(t, toTimestamptz(time.Time{}).Valid)
	assert.Nil(t, fromTimestamptzPtr(pgtype.Timestamptz{}))

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	got := fromTimestamptzPtr(toTimestamptzPtr(&now))
	require.NotNil(t, got)
	assert.Equal(t, now, *got)

	assert.False(t, toInt4Ptr(nil).Valid)
	assert.Nil(t, fromInt4Ptr(pgtype.Int4{}))

	n := 3
	assert.Equal(t, 3, *fromInt4Ptr(toInt4Ptr(&n)))

	big := math.MaxInt32 + 10
	assert.Equal(t, int32(math.MaxInt32), toInt4Ptr(&big).Int32)
}

func TestSanitizeUTF8(t *testing.T) {
	assert.Equal(t, "ok", SanitizeUTF8("ok"))
	assert.Equal(t, "ab", SanitizeUTF8("a\xffb"))
}
