/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: mutators_test.go
Description: Tests for the payload mutation primitives, including ordering guarantees,
input immutability and the blind injection pair recipe.
*/

package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppend(t *testing.T) {
	in := []string{"a", "b"}
	got := Append(in, ")")
	assert.Equal(t, []string{"a)", "b)", "a", "b"}, got)
	assert.Equal(t, []string{"a", "b"}, in)
}

func TestPrepend(t *testing.T) {
	in := []string{"x", "y"}
	got := Prepend(in, `">`)
	assert.Equal(t, []string{`">x`, `">y`, "x", "y"}, got)
	assert.Equal(t, []string{"x", "y"}, in)
}

func TestReplaceOnlyMutatesMatches(t *testing.T) {
	in := []string{`a"b"`, "plain"}
	got := Replace(in, `"`, "'")
	assert.Equal(t, []string{"a'b'", `a"b"`, "plain"}, got)
}

func TestTailReplace(t *testing.T) {
	assert.Equal(t, []string{"aaa1aaa2"}, TailReplace([]string{"aaa1aaa1"}, "1", "2", 1))
	assert.Equal(t, []string{"aaa2aaa2"}, TailReplace([]string{"aaa1aaa1"}, "1", "2", 2))
	assert.Equal(t, []string{"2a2"}, TailReplace([]string{"1a1"}, "1", "2", 5))
	assert.Equal(t, []string{"none"}, TailReplace([]string{"none"}, "1", "2", 1))
}

func TestTailReplaceDoesNotKeepOriginal(t *testing.T) {
	got := TailReplace([]string{"x=1", "y=1"}, "1", "2", 1)
	assert.Len(t, got, 2)
	assert.Equal(t, []string{"x=2", "y=2"}, got)
}

func TestPercentEncodeDoublesLength(t *testing.T) {
	in := []string{"' OR 1=1", "<script>", "plain"}
	got := PercentEncode(in)
	assert.Len(t, got, 2*len(in))
	assert.Equal(t, in, got[:len(in)])
	assert.Equal(t, []string{"%27+OR+1%3D1", "%3Cscript%3E", "plain"}, got[len(in):])
}

func TestPercentEncodeSingle(t *testing.T) {
	assert.Equal(t, "%22%3E", PercentEncodeSingle(`">`))
	assert.Equal(t, "a+b", PercentEncodeSingle("a b"))
}

func TestBooleanPairs(t *testing.T) {
	pairs := BooleanPairs([]string{"5 AND 1=1"})
	assert.Equal(t, []Pair{
		{True: "5 AND 1=1", False: "5 AND 1=2"},
		{True: "5+AND+1%3D1", False: "5+AND+1%3D2"},
	}, pairs)
}

func TestXSSRecipeOrdering(t *testing.T) {
	got := Replace(PercentEncode(Prepend([]string{`<a href="x">`}, `">`)), `"`, "'")

	// prepend (2) -> encode (4) -> replace adds mutated entries for the two
	// unencoded payloads that still contain a double quote
	assert.Len(t, got, 6)
	assert.Equal(t, `'><a href='x'>`, got[0])
	assert.Equal(t, `<a href='x'>`, got[1])
	assert.Equal(t, `"><a href="x">`, got[2])
}
