package types

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type PortfolioTestSuite struct {
	suite.Suite
}

func TestPortfolioSuite(t *testing.T) {
	suite.Run(t, new(PortfolioTestSuite))
}

func (suite *PortfolioTestSuite) TestPosition() {
	suite.Equal(PositionFlat, PortfolioState{Cash: 1000}.Position())
	suite.Equal(PositionLong, PortfolioState{Units: 9.9}.Position())
	suite.Equal(PositionFlat, PortfolioState{}.Position())
}

func (suite *PortfolioTestSuite) TestValue() {
	suite.Equal(1000.0, PortfolioState{Cash: 1000}.Value(50))
	suite.InDelta(1050.0, PortfolioState{Units: 10}.Value(105), 1e-9)
}
