package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/spigell/hh-analyst/internal/analysis"
)

func sampleResult() *analysis.Result {
	return &analysis.Result{
		TopJobTitles: analysis.Counts{{Key: "Data Engineer", Value: 2}, {Key: "Go Developer", Value: 1}},
		WordCloud:    analysis.Counts{{Key: "python", Value: 3}},
		TopLocations: analysis.Counts{{Key: "Jakarta", Value: 2}},
		PostingTrend: analysis.Series{{Date: "2023-01-08", Value: 1.5}},
		TopRemoteJobs: analysis.Counts{
			{Key: "Go Developer", Value: 1},
		},
		TechStacks: analysis.KeywordTrends{
			{Keyword: "python", Series: analysis.Series{{Date: "2023-01-01", Value: 1}, {Date: "2023-01-02", Value: 2}}},
			{Keyword: "sql", Series: analysis.Series{{Date: "2023-01-01", Value: 0.5}, {Date: "2023-01-02", Value: 1}}},
		},
	}
}

func TestToExcelAppendsExtension(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "report")
	path, err := ToExcel(sampleResult(), out)
	require.NoError(t, err)
	assert.Equal(t, out+".xlsx", path)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestToExcelKeepsExistingExtension(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "report.XLSX")
	path, err := ToExcel(sampleResult(), out)
	require.NoError(t, err)
	assert.Equal(t, out, path)
}

func TestToExcelWritesOneSheetPerReport(t *testing.T) {
	t.Parallel()

	path, err := ToExcel(sampleResult(), filepath.Join(t.TempDir(), "report.xlsx"))
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		SheetTitles, SheetWordCloud, SheetLocations, SheetTrend, SheetIndustries,
		SheetSkills, SheetRemote, SheetNonRemote, SheetTechStacks,
	}, f.GetSheetList())
	assert.Len(t, f.GetSheetList(), len(analysis.ReportNames))

	rows, err := f.GetRows(SheetTitles)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Title", "Postings"}, rows[0])
	assert.Equal(t, []string{"Data Engineer", "2"}, rows[1])

	rows, err = f.GetRows(SheetTechStacks)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "python", "sql"}, rows[0])
	assert.Equal(t, []string{"2023-01-02", "2", "1"}, rows[2])

	rows, err = f.GetRows(SheetIndustries)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestToExcelRejectsNilResult(t *testing.T) {
	t.Parallel()

	_, err := ToExcel(nil, filepath.Join(t.TempDir(), "report"))
	require.Error(t, err)
}
