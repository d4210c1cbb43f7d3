package repositories

import "github.com/vsinha/sellerscope/pkg/domain/entities"

// PortfolioRepository provides access to uploaded portfolio data
type PortfolioRepository interface {
	LoadPortfolio(filename string) (*entities.Portfolio, error)
}
