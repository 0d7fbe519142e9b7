package heritage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heritage-map/internal/geo"
)

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Igreja de São Francisco de Assis": "igreja-de-sao-francisco-de-assis",
		"  Casa dos Contos  ":              "casa-dos-contos",
		"Chafariz (Largo do Rosário), nº 3": "chafariz-largo-do-rosario-n-3",
		"Área de Proteção -- Serra":        "area-de-protecao-serra",
		"":                                 "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestClassify(t *testing.T) {
	p := DefaultPolicy()
	cases := []struct {
		name string
		rec  RawRecord
		want Kind
	}{
		{"typology", RawRecord{Title: "Conjunto arquitetônico", Typology: "Conjunto Urbano e Paisagístico"}, KindArea},
		{"title keyword", RawRecord{Title: "Centro Histórico de Mariana"}, KindArea},
		{"title keyword without accents", RawRecord{Title: "Area de Protecao do Itacolomi"}, KindArea},
		{"municipality prefix", RawRecord{Title: "Município de Sabará"}, KindArea},
		{"allow-listed municipality", RawRecord{Title: "ouro preto"}, KindArea},
		{"municipality name inside title is a point", RawRecord{Title: "Museu de Ouro Preto"}, KindPoint},
		{"building", RawRecord{Title: "Casa dos Contos", Typology: "Edificação"}, KindPoint},
		{"manual coordinates win", RawRecord{Title: "Centro Histórico", ManualCoordinates: &geo.Point{Lat: -20.1, Lon: -43.1}}, KindPoint},
		{"zero manual coordinates ignored", RawRecord{Title: "Centro Histórico", ManualCoordinates: &geo.Point{}}, KindArea},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, p.Classify(tc.rec))
		})
	}
}

func TestLoadPolicy(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(fp, []byte("municipalities: [Paraty]\naccept_threshold: 0.8\n"), 0o644))
	p, err := LoadPolicy(fp)
	require.NoError(t, err)
	assert.Equal(t, []string{"Paraty"}, p.Municipalities)
	assert.Equal(t, 0.8, p.AcceptThreshold)
	assert.Equal(t, DefaultPolicy().TitleKeywords, p.TitleKeywords)
	assert.Equal(t, KindArea, p.Classify(RawRecord{Title: "Paraty"}))
	assert.Equal(t, KindPoint, p.Classify(RawRecord{Title: "Ouro Preto"}))

	_, err = LoadPolicy(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestScore(t *testing.T) {
	cases := []struct {
		classes   []string
		conf      float64
		precision Precision
	}{
		{[]string{"building", "yes", "building"}, 0.95, PrecisionRooftop},
		{[]string{"place", "house", "place"}, 0.95, PrecisionRooftop},
		{[]string{"highway", "residential", "road"}, 0.80, PrecisionStreet},
		{[]string{"boundary", "administrative", "city"}, 0.40, PrecisionMunicipality},
		{[]string{"amenity", "place_of_worship", "amenity"}, 0.60, PrecisionPlace},
		{nil, 0.60, PrecisionPlace},
	}
	for _, tc := range cases {
		c, p := Score(tc.classes...)
		assert.Equal(t, tc.conf, c, tc.classes)
		assert.Equal(t, tc.precision, p, tc.classes)
	}
}

func TestAssetApplyStatus(t *testing.T) {
	a := Asset{Coordinates: geo.Point{Lat: -20, Lon: -43}, Confidence: 0.95}
	a.ApplyStatus(0.75)
	assert.Equal(t, StatusOK, a.Status)

	a.Confidence = 0.6
	a.ApplyStatus(0.75)
	assert.Equal(t, StatusNeedsReview, a.Status)

	z := Asset{Confidence: 1}
	z.ApplyStatus(0.75)
	assert.Equal(t, StatusNeedsReview, z.Status)

	n := Asset{Status: StatusNoResult}
	n.ApplyStatus(0.75)
	assert.Equal(t, StatusNoResult, n.Status)
}

func TestAreaApplyGeometry(t *testing.T) {
	var a Area
	a.ApplyGeometry([]geo.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.001}, {Lat: 0.001, Lon: 0.001}})
	require.Len(t, a.Geometry, 4)
	assert.Equal(t, StatusOK, a.Status)
	assert.Greater(t, a.AreaM2, 0.0)
	assert.True(t, AreaRecord(a).Resolved())

	var bad Area
	bad.ApplyGeometry([]geo.Point{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}})
	assert.Nil(t, bad.Geometry)
	assert.Equal(t, StatusNeedsReview, bad.Status)
	assert.False(t, AreaRecord(bad).Resolved())
}

func TestRecordVariant(t *testing.T) {
	p := PointRecord(Asset{ID: "casa", Status: StatusOK, Coordinates: geo.Point{Lat: 1, Lon: 1}})
	assert.Equal(t, "casa", p.ID())
	assert.True(t, p.Resolved())
	assert.Equal(t, CollectionAssets, p.Kind.Collection())
	assert.Equal(t, KindArea, p.Kind.Opposite())
	assert.Equal(t, CollectionAreas, KindArea.Collection())
	assert.Equal(t, "", Record{Kind: KindArea}.ID())
}
