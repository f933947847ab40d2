package directoryrepo_test

import (
	"context"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/postgres/directoryrepo"
	"fulfillment/internal/core/domain/model/cart"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type DirectoryIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	catalog   *directoryrepo.GormProductCatalog
	ffls      *directoryrepo.GormFFLDirectory
}

func (suite *DirectoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&directoryrepo.ProductDTO{}, &directoryrepo.DealerDTO{}))
	suite.catalog = directoryrepo.NewGormProductCatalog(db)
	suite.ffls = directoryrepo.NewGormFFLDirectory(db)
}

func (suite *DirectoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE product_catalog, ffl_directory").Error)
}

func (suite *DirectoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *DirectoryIntegrationTestSuite) TestCatalogGet() {
	ctx := context.Background()
	suite.Require().NoError(suite.db.Create(&directoryrepo.ProductDTO{
		SKU:          "MAG-PMAG30",
		RequiresFFL:  false,
		Manufacturer: "Magpul",
		Category:     "Magazines",
		UPC:          "873750000015",
		MPN:          "MAG571-BLK",
		Attributes:   cart.Attributes{IsMagazine: true, Capacity: 30},
	}).Error)

	suite.Run("known sku", func() {
		md, err := suite.catalog.Get(ctx, " MAG-PMAG30 ")
		suite.Require().NoError(err)
		suite.Equal("Magpul", md.Manufacturer)
		suite.Equal("MAG571-BLK", md.MPN)
		suite.True(md.Attributes.IsMagazine)
		suite.Equal(30, md.Attributes.Capacity)
	})

	suite.Run("unknown sku", func() {
		_, err := suite.catalog.Get(ctx, "NOPE")
		suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
	})

	suite.Run("empty sku", func() {
		_, err := suite.catalog.Get(ctx, "")
		suite.Require().ErrorIs(err, errs.ErrValueIsRequired)
	})
}

func (suite *DirectoryIntegrationTestSuite) TestFFLLookup() {
	ctx := context.Background()
	expired := time.Now().Add(-24 * time.Hour)
	suite.Require().NoError(suite.db.Create(&[]directoryrepo.DealerDTO{
		{
			ID:            "ffl-hcg",
			LicenseNumber: "5-74-000-01-2B-00001",
			BusinessName:  "Hill Country Guns",
			Line1:         "400 Main St",
			City:          "Austin",
			State:         "TX",
			Zip:           "78702",
		},
		{
			ID:               "ffl-old",
			LicenseNumber:    "5-74-000-01-2B-00002",
			BusinessName:     "Closed Shop",
			Line1:            "1 Gone Rd",
			City:             "Waco",
			State:            "TX",
			Zip:              "76701",
			LicenseExpiresAt: &expired,
		},
	}).Error)

	suite.Run("active dealer", func() {
		ffl, err := suite.ffls.Lookup(ctx, "ffl-hcg")
		suite.Require().NoError(err)
		suite.Equal("5-74-000-01-2B-00001", ffl.LicenseNumber)
		suite.Equal("Hill Country Guns", ffl.BusinessName)
		suite.Equal(kernel.StateCode("TX"), ffl.Address().State())
	})

	suite.Run("expired license", func() {
		_, err := suite.ffls.Lookup(ctx, "ffl-old")
		suite.Require().ErrorIs(err, errs.ErrValueIsInvalid)
	})

	suite.Run("unknown dealer", func() {
		_, err := suite.ffls.Lookup(ctx, "ffl-none")
		suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
	})
}

func TestDirectoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(DirectoryIntegrationTestSuite))
}
