package writer

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/pairwise-alpha/internal/types"
	"github.com/stretchr/testify/suite"
)

type DuckDBWriterTestSuite struct {
	suite.Suite
	tempDir string
}

func TestDuckDBWriterSuite(t *testing.T) {
	suite.Run(t, new(DuckDBWriterTestSuite))
}

func (suite *DuckDBWriterTestSuite) SetupSuite() {
	tempDir, err := os.MkdirTemp("", "duckdb-writer-test")
	suite.Require().NoError(err)
	suite.tempDir = tempDir
}

func (suite *DuckDBWriterTestSuite) TearDownSuite() {
	if suite.tempDir != "" {
		os.RemoveAll(suite.tempDir)
	}
}

func (suite *DuckDBWriterTestSuite) bar(symbol string, t time.Time, closePrice float64) types.MarketData {
	return types.MarketData{
		Symbol: symbol,
		Time:   t,
		Open:   closePrice - 1,
		High:   closePrice + 2,
		Low:    closePrice - 2,
		Close:  closePrice,
		Volume: 1000,
	}
}

func (suite *DuckDBWriterTestSuite) TestNewDuckDBWriter() {
	outputPath := filepath.Join(suite.tempDir, "test.parquet")
	writer := NewDuckDBWriter(outputPath)

	duckWriter, ok := writer.(*DuckDBWriter)
	suite.Require().True(ok)
	suite.Equal(outputPath, duckWriter.GetOutputPath())
	suite.Nil(duckWriter.db)
	suite.Nil(duckWriter.tx)
	suite.Nil(duckWriter.stmt)
}

func (suite *DuckDBWriterTestSuite) TestInitializeAndClose() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "init.parquet"))

	suite.Require().NoError(writer.Initialize())

	duckWriter := writer.(*DuckDBWriter)
	suite.NotNil(duckWriter.db)
	suite.NotNil(duckWriter.tx)
	suite.NotNil(duckWriter.stmt)

	suite.NoError(writer.Close())
	suite.Nil(duckWriter.db)
	suite.Nil(duckWriter.tx)
	suite.Nil(duckWriter.stmt)

	// Second close is a no-op
	suite.NoError(writer.Close())
}

func (suite *DuckDBWriterTestSuite) TestNotInitialized() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "no_init.parquet"))

	err := writer.Write(suite.bar("ETH-USD", time.Now(), 100))
	suite.Error(err)
	suite.Contains(err.Error(), "not initialized")

	_, err = writer.Finalize()
	suite.Error(err)
	suite.Contains(err.Error(), "not initialized")

	suite.NoError(writer.Close())
}

func (suite *DuckDBWriterTestSuite) TestFinalizeExportsOrderedParquet() {
	outputPath := filepath.Join(suite.tempDir, "ordered.parquet")
	writer := NewDuckDBWriter(outputPath)
	suite.Require().NoError(writer.Initialize())

	defer writer.Close()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Written out of order on purpose
	suite.Require().NoError(writer.Write(suite.bar("ETH-USD", base.Add(8*time.Hour), 103)))
	suite.Require().NoError(writer.Write(suite.bar("ETH-USD", base, 101)))
	suite.Require().NoError(writer.Write(suite.bar("ETH-USD", base.Add(4*time.Hour), 102)))

	path, err := writer.Finalize()
	suite.Require().NoError(err)
	suite.Equal(outputPath, path)

	db, err := sql.Open("duckdb", "")
	suite.Require().NoError(err)

	defer db.Close()

	rows, err := db.Query("SELECT close FROM read_parquet('" + path + "')")
	suite.Require().NoError(err)

	defer rows.Close()

	var closes []float64

	for rows.Next() {
		var c float64
		suite.Require().NoError(rows.Scan(&c))
		closes = append(closes, c)
	}

	suite.Require().NoError(rows.Err())
	suite.Equal([]float64{101, 102, 103}, closes)
}

func (suite *DuckDBWriterTestSuite) TestDoubleFinalize() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "double.parquet"))
	suite.Require().NoError(writer.Initialize())

	defer writer.Close()

	suite.Require().NoError(writer.Write(suite.bar("AVAX-USD", time.Now().UTC(), 30)))

	_, err := writer.Finalize()
	suite.NoError(err)

	_, err = writer.Finalize()
	suite.Error(err)
	suite.Contains(err.Error(), "not initialized")
}

func (suite *DuckDBWriterTestSuite) TestWriteAfterClose() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "closed.parquet"))
	suite.Require().NoError(writer.Initialize())
	suite.Require().NoError(writer.Close())

	err := writer.Write(suite.bar("AVAX-USD", time.Now().UTC(), 30))
	suite.Error(err)
	suite.Contains(err.Error(), "not initialized")
}

func (suite *DuckDBWriterTestSuite) TestFinalizeExportError() {
	writer := NewDuckDBWriter("/nonexistent/directory/test.parquet")
	suite.Require().NoError(writer.Initialize())

	defer writer.Close()

	suite.Require().NoError(writer.Write(suite.bar("AVAX-USD", time.Now().UTC(), 30)))

	_, err := writer.Finalize()
	suite.Error(err)
	suite.Contains(err.Error(), "failed to export to Parquet")
}

func (suite *DuckDBWriterTestSuite) TestCloseWithActiveTransaction() {
	outputPath := filepath.Join(suite.tempDir, "active_tx.parquet")
	writer := NewDuckDBWriter(outputPath)
	suite.Require().NoError(writer.Initialize())
	suite.Require().NoError(writer.Write(suite.bar("AVAX-USD", time.Now().UTC(), 30)))

	suite.NoError(writer.Close())

	_, statErr := os.Stat(outputPath)
	suite.True(os.IsNotExist(statErr))
}
