package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuzzyScore_Identical(t *testing.T) {
	assert.Equal(t, 1.0, FuzzyScore("POS Purchase Shoprite", "POS Purchase Shoprite"))
}

func TestFuzzyScore_TokenOrderInsensitive(t *testing.T) {
	assert.Equal(t, 1.0, FuzzyScore("Shoprite POS Purchase", "POS Purchase Shoprite"))
}

func TestFuzzyScore_CaseInsensitive(t *testing.T) {
	assert.Equal(t, 1.0, FuzzyScore("SHOPRITE", "shoprite"))
}

func TestFuzzyScore_PartialOverlap(t *testing.T) {
	s := FuzzyScore("Transfer to John Doe", "John Doe")
	assert.Greater(t, s, 0.4)
	assert.Less(t, s, 1.0)
}

func TestFuzzyScore_Unrelated(t *testing.T) {
	assert.Less(t, FuzzyScore("electricity bill", "zzqx"), 0.4)
}

func TestFuzzyScore_Empty(t *testing.T) {
	assert.Zero(t, FuzzyScore("", "anything"))
	assert.Zero(t, FuzzyScore("anything", ""))
	assert.Zero(t, FuzzyScore("", ""))
}
