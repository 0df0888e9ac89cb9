package intern_test

import (
	"fmt"
	"testing"

	"github.com/Amund211/staticstr/intern"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	require.Same(t, intern.Default(), intern.Default())

	s := intern.Intern("hello from the default pool")
	require.Equal(t, "hello from the default pool", s)
	require.True(t, intern.IsInterned("hello from the default pool"))
	require.True(t, intern.Default().IsInterned("hello from the default pool"))
	require.True(t, sameAllocation(s, intern.InternBytes([]byte("hello from the default pool"))))

	require.True(t, intern.Evict("hello from the default pool"))
	require.False(t, intern.IsInterned("hello from the default pool"))
}

func TestConcat(t *testing.T) {
	t.Parallel()

	t.Run("literals", func(t *testing.T) {
		t.Parallel()

		result := intern.Concat("hello", ", ", "world", "!")
		require.Equal(t, "hello, world!", result)
		require.True(t, intern.IsInterned("hello, world!"))
		require.True(t, sameAllocation(result, intern.Intern("hello, world!")))
	})

	t.Run("single fragment", func(t *testing.T) {
		t.Parallel()

		pool := intern.New()
		require.Equal(t, "solo", pool.Concat("solo"))
		require.True(t, pool.IsInterned("solo"))
	})

	t.Run("explicitly converted runtime value", func(t *testing.T) {
		t.Parallel()

		// Only implicit conversion of variables is rejected
		suffix := fmt.Sprint(42)
		pool := intern.New()
		require.Equal(t, "answer-42", pool.Concat("answer-", intern.Literal(suffix)))
		require.True(t, pool.IsInterned("answer-42"))
	})

	t.Run("no fragments", func(t *testing.T) {
		t.Parallel()

		pool := intern.New()
		require.Equal(t, "", pool.Concat())
		require.False(t, pool.IsInterned(""))
		require.Equal(t, intern.Stats{}, pool.Stats())
	})

	t.Run("trailing empty fragment", func(t *testing.T) {
		t.Parallel()

		pool := intern.New()
		require.Equal(t, "hello world!", pool.Concat("hello", " ", "world", "!", ""))
	})
}

func TestFormat(t *testing.T) {
	t.Parallel()

	t.Run("strings", func(t *testing.T) {
		t.Parallel()

		result := intern.Format("%s %s!", "hello", "world")
		require.Equal(t, "hello world!", result)
		require.True(t, intern.IsInterned("hello world!"))
	})

	t.Run("mixed arguments", func(t *testing.T) {
		t.Parallel()

		pool := intern.New()
		name := "John"
		age := 30
		message := pool.Format("My name is %s and I'm %d years old.", name, age)
		require.Equal(t, "My name is John and I'm 30 years old.", message)
		require.True(t, sameAllocation(message, pool.Intern(fmt.Sprintf("My name is %s and I'm %d years old.", name, age))))
	})
}

type typenamer interface {
	typename() string
}

type i32 struct{}

func (i32) typename() string { return "i32" }

type i64 struct{}

func (i64) typename() string { return "i64" }

type data[T typenamer] struct{}

func (data[T]) typename() string {
	var inner T
	return intern.Format("Data<%s>", inner.typename())
}

func TestFormatNestedTypenames(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Data<i32>", data[i32]{}.typename())
	require.Equal(t, "Data<Data<i64>>", data[data[i64]]{}.typename())
	require.True(t, sameAllocation(data[i32]{}.typename(), data[i32]{}.typename()))
}
