package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "data-ai", slugify("Data & AI"))
	assert.Equal(t, "ui-ux-design", slugify("UI/UX Design"))
	assert.Equal(t, "java-jungle", slugify("  Java   Jungle  "))
	assert.Equal(t, "", slugify("!!!"))
}

func TestValidateChannel(t *testing.T) {
	ok := normalizeChannel(models.Channel{Name: "Cloud Native", Icon: "Cloud", Color: "bg-primary/10"})
	assert.NoError(t, validateChannel(ok))

	assert.Error(t, validateChannel(normalizeChannel(models.Channel{Name: " "})))
	assert.Error(t, validateChannel(models.Channel{Name: "x", Slug: "Bad Slug"}))
	assert.Error(t, validateChannel(models.Channel{Name: "x", Slug: "x", Color: "<script>"}))
	assert.Error(t, validateChannel(models.Channel{Name: "x", Slug: "x", Icon: "a b"}))
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"mendix", "low-code"}, normalizeTags([]string{"#Mendix", "low-code", "MENDIX", ""}))
	assert.Empty(t, normalizeTags(nil))
}
