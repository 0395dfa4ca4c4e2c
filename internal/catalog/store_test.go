package catalog

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func objectStoreTemplates() []EndpointTemplate {
	return []EndpointTemplate{
		NewEndpointTemplate(TemplateSpec{
			ID:          "t1",
			ServiceType: "object-store",
			Region:      "ORD",
			Version:     "v1",
			URL:         "https://storage.ord.example.com/v1",
			Enabled:     true,
		}),
		NewEndpointTemplate(TemplateSpec{
			ID:          "t2",
			ServiceType: "object-store",
			Region:      "DFW",
			Version:     "v1",
			URL:         "https://storage.dfw.example.com/v1",
			Enabled:     false,
		}),
	}
}

func endpointIDs(entries []Entry) []string {
	var ids []string
	for _, e := range entries {
		for _, ep := range e.Endpoints {
			ids = append(ids, ep.EndpointID)
		}
	}
	return ids
}

func TestNewExternalAPIStoreStampsName(t *testing.T) {
	templates := objectStoreTemplates()
	templates[0] = templates[0].WithName("something else")

	store, err := NewExternalAPIStore("uuid-files", "Cloud Files", "object-store", templates)
	require.NoError(t, err)

	for _, tpl := range store.Templates() {
		assert.Equal(t, "Cloud Files", tpl.Name())
	}
	// The caller's slice is not touched.
	assert.Equal(t, "something else", templates[0].Name())
}

func TestNewExternalAPIStoreServiceTypeMismatch(t *testing.T) {
	templates := append(objectStoreTemplates(), NewEndpointTemplate(TemplateSpec{
		ID:          "t3",
		ServiceType: "compute",
		URL:         "https://compute.example.com",
	}))

	store, err := NewExternalAPIStore("uuid-files", "Cloud Files", "", templates)
	require.Error(t, err)
	assert.Nil(t, store)

	var typeErr *InvalidServiceTypeError
	require.True(t, errors.As(err, &typeErr))
	assert.Equal(t, "object-store", typeErr.Want)
	assert.Equal(t, "compute", typeErr.Got)
	assert.Equal(t, "t3", typeErr.TemplateID)
}

func TestNewExternalAPIStoreExplicitTypeDisagreesWithTemplates(t *testing.T) {
	_, err := NewExternalAPIStore("id", "name", "compute", objectStoreTemplates())
	var typeErr *InvalidServiceTypeError
	require.ErrorAs(t, err, &typeErr)
}

func TestNewExternalAPIStoreEmpty(t *testing.T) {
	_, err := NewExternalAPIStore("id", "name", "", nil)
	require.Error(t, err)

	store, err := NewExternalAPIStore("id", "name", "object-store", nil)
	require.NoError(t, err)
	assert.Empty(t, store.EntriesForTenant("42"))
}

func TestNewExternalAPIStoreDuplicateIDs(t *testing.T) {
	templates := objectStoreTemplates()
	templates = append(templates, templates[0])

	_, err := NewExternalAPIStore("id", "name", "", templates)
	var dupErr *DuplicateTemplateError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "t1", dupErr.TemplateID)
}

func TestEntriesForTenantScenario(t *testing.T) {
	store, err := NewExternalAPIStore("uuid-files", "Cloud Files", "", objectStoreTemplates())
	require.NoError(t, err)

	entries := store.EntriesForTenant("42")
	require.Len(t, entries, 1)
	assert.Equal(t, "object-store", entries[0].Type)
	assert.Equal(t, "Cloud Files", entries[0].Name)
	assert.Equal(t, []string{"t1"}, endpointIDs(entries))

	store.SetEnabledForTenant("42", "t2", true)

	entries = store.EntriesForTenant("42")
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"t1", "t2"}, endpointIDs(entries))

	assert.Equal(t, []string{"t1"}, endpointIDs(store.EntriesForTenant("99")))
}

func TestOverrideFlipBack(t *testing.T) {
	store, err := NewExternalAPIStore("id", "Cloud Files", "", objectStoreTemplates())
	require.NoError(t, err)

	store.SetEnabledForTenant("42", "t1", false)
	assert.False(t, store.IsEnabled("42", "t1"))
	assert.Empty(t, store.EntriesForTenant("42"))

	store.SetEnabledForTenant("42", "t1", true)
	assert.True(t, store.IsEnabled("42", "t1"))
	assert.True(t, store.IsEnabled("99", "t1"))
	assert.False(t, store.IsEnabled("99", "t2"))
}

func TestEntriesForTenantCountsEnabled(t *testing.T) {
	tests := []struct {
		name     string
		defaults []bool
		flips    map[string]bool
		want     int
	}{
		{name: "all enabled", defaults: []bool{true, true, true}, want: 3},
		{name: "all disabled", defaults: []bool{false, false, false}, want: 0},
		{name: "mixed", defaults: []bool{true, false, true, false}, want: 2},
		{
			name:     "mixed with flips",
			defaults: []bool{true, false, true, false},
			flips:    map[string]bool{"tpl-0": false, "tpl-1": true, "tpl-3": true},
			want:     3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			templates := make([]EndpointTemplate, 0, len(tt.defaults))
			for i, enabled := range tt.defaults {
				templates = append(templates, NewEndpointTemplate(TemplateSpec{
					ID:          "tpl-" + string(rune('0'+i)),
					ServiceType: "object-store",
					URL:         "https://example.com",
					Enabled:     enabled,
				}))
			}
			store, err := NewExternalAPIStore("id", "svc", "", templates)
			require.NoError(t, err)

			for id, enabled := range tt.flips {
				store.SetEnabledForTenant("T", id, enabled)
			}
			assert.Len(t, endpointIDs(store.EntriesForTenant("T")), tt.want)
		})
	}
}

func TestSetEnabledForUnknownTemplateIsInert(t *testing.T) {
	store, err := NewExternalAPIStore("id", "Cloud Files", "", objectStoreTemplates())
	require.NoError(t, err)

	store.SetEnabledForTenant("42", "does-not-exist", true)
	store.SetEnabledForTenant("42", "does-not-exist", true)

	assert.False(t, store.IsEnabled("42", "does-not-exist"))
	assert.Equal(t, []string{"t1"}, endpointIDs(store.EntriesForTenant("42")))
}

func TestAddAndRemoveTemplate(t *testing.T) {
	store, err := NewExternalAPIStore("id", "Cloud Files", "", objectStoreTemplates())
	require.NoError(t, err)

	added := NewEndpointTemplate(TemplateSpec{
		ID:          "t3",
		ServiceType: "object-store",
		Name:        "ignored",
		Region:      "IAD",
		URL:         "https://storage.iad.example.com/v1",
		Enabled:     true,
	})
	require.NoError(t, store.AddTemplate(added))

	tpl, ok := store.Template("t3")
	require.True(t, ok)
	assert.Equal(t, "Cloud Files", tpl.Name())
	assert.Equal(t, []string{"t1", "t3"}, endpointIDs(store.EntriesForTenant("42")))

	var dupErr *DuplicateTemplateError
	require.ErrorAs(t, store.AddTemplate(added), &dupErr)

	var typeErr *InvalidServiceTypeError
	require.ErrorAs(t, store.AddTemplate(NewEndpointTemplate(TemplateSpec{ServiceType: "compute"})), &typeErr)

	assert.True(t, store.RemoveTemplate("t1"))
	assert.False(t, store.RemoveTemplate("t1"))
	assert.Equal(t, []string{"t3"}, endpointIDs(store.EntriesForTenant("42")))
}

func TestTemplatesForTenant(t *testing.T) {
	store, err := NewExternalAPIStore("id", "Cloud Files", "", objectStoreTemplates())
	require.NoError(t, err)
	store.SetEnabledForTenant("42", "t1", false)

	views := store.TemplatesForTenant("42")
	require.Len(t, views, 2)
	assert.False(t, views[0].Enabled)
	assert.False(t, views[1].Enabled)
}

func TestStoreConcurrentOverrides(t *testing.T) {
	store, err := NewExternalAPIStore("id", "Cloud Files", "", objectStoreTemplates())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			store.SetEnabledForTenant("42", "t2", i%2 == 0)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.EntriesForTenant("42")
		}()
	}
	wg.Wait()

	store.SetEnabledForTenant("42", "t2", true)
	assert.Equal(t, []string{"t1", "t2"}, endpointIDs(store.EntriesForTenant("42")))
}
