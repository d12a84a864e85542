package students

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Lookups(t *testing.T) {
	svc := NewService(nil)

	st, ok := svc.ByFullName("  ann   LEE ")
	require.True(t, ok)
	assert.Equal(t, 1, st.ID)

	_, ok = svc.ByFullName("Ann")
	assert.False(t, ok)

	st, ok = svc.ByID(3)
	require.True(t, ok)
	assert.Equal(t, "Cathy Wu", st.FullName())

	_, ok = svc.ByID(99)
	assert.False(t, ok)
}

func TestService_Filters(t *testing.T) {
	svc := NewService(nil)
	ids := func(list []Student) []int {
		return lo.Map(list, func(s Student, _ int) int { return s.ID })
	}

	assert.Equal(t, []int{1, 5}, ids(svc.BySchool("nursing")))
	assert.Equal(t, []int{1, 4}, ids(svc.ByLastName("Lee")))
	assert.Equal(t, []int{1, 7}, ids(svc.ByFirstName("ANN")))
	assert.Empty(t, svc.BySchool("Law"))
	assert.NotNil(t, svc.BySchool("Law"))
	assert.Len(t, svc.All(), len(DefaultRoster()))
}

func TestService_CopiesRoster(t *testing.T) {
	roster := []Student{{ID: 1, FirstName: "Ann", LastName: "Lee", School: "North"}}
	svc := NewService(roster)
	roster[0].FirstName = "Zed"

	all := svc.All()
	all[0].LastName = "Changed"

	st, ok := svc.ByID(1)
	require.True(t, ok)
	assert.Equal(t, "Ann Lee", st.FullName())
}
