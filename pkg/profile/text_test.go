package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Ada   Lovelace \n", "Ada Lovelace"},
		{"", NotAvailable},
		{"null", NotAvailable},
		{"Not Available", NotAvailable},
		{" - ", NotAvailable},
		{"Acme CorpAcme Corp", "Acme Corp"},
		{"Acme Corp Acme Corp", "Acme Corp"},
		{"MBA MBA", "MBA"},
		{"Ada Lovelace", "Ada Lovelace"},
		{"SEO SEO Specialist", "SEO Specialist"},
		{"New New York", "New New York"},
		{"abab", "ab"},
		{"abc", "abc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanText(tt.in), "CleanText(%q)", tt.in)
	}
}

func TestCleanRole(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Sr. Software Engineer", "Senior Software Engineer"},
		{"VP, Engineering", "Vice President, Engineering"},
		{"Engineering Mgr", "Engineering Manager"},
		{"Director", "Director"},
		{"n/a", NotAvailable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanRole(tt.in), "CleanRole(%q)", tt.in)
	}
}

func TestCleanDegree(t *testing.T) {
	assert.Equal(t, "Master of Science Computer Science", CleanDegree("M.S. Computer Science"))
	assert.Equal(t, "Doctor of Philosophy", CleanDegree("Ph.D."))
	assert.Equal(t, "MBA", CleanDegree("MBA"))
}

func TestSplitSkills(t *testing.T) {
	got := SplitSkills("Go, Python • Kubernetes | go ;SQL\nTerraform")
	assert.Equal(t, []string{"Go", "Python", "Kubernetes", "SQL", "Terraform"}, got)

	assert.Nil(t, SplitSkills(NotAvailable))
	assert.Empty(t, SplitSkills(" , ,"))
}

func TestJoinSkills(t *testing.T) {
	assert.Equal(t, NotAvailable, JoinSkills(nil))
	assert.Equal(t, "Go, SQL", JoinSkills([]string{"Go", "SQL"}))
}
