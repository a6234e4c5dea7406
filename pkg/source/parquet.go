package source

import (
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// Parquet row schemas for the upstream entity snapshots. Loaders upstream
// of the engine export one file per dataset. Natural keys are required
// columns; everything else is optional so a null scalar reads back as
// absent rather than as a zero value. Zero-length lists count as absent
// through the Record accessors.

type parquetProperty struct {
	ListingID      string    `parquet:"listing_id"`
	Price          *float64  `parquet:"price,optional"`
	Bedrooms       *int32    `parquet:"bedrooms,optional"`
	Bathrooms      *float64  `parquet:"bathrooms,optional"`
	SquareFeet     *float64  `parquet:"square_feet,optional"`
	Features       []string  `parquet:"features,list"`
	PropertyType   *string   `parquet:"property_type,optional"`
	Address        *string   `parquet:"address,optional"`
	City           *string   `parquet:"city,optional"`
	State          *string   `parquet:"state,optional"`
	ZipCode        *string   `parquet:"zip_code,optional"`
	NeighborhoodID *string   `parquet:"neighborhood_id,optional"`
	Embedding      []float32 `parquet:"embedding,list"`
}

type parquetNeighborhood struct {
	NeighborhoodID string    `parquet:"neighborhood_id"`
	Name           *string   `parquet:"name,optional"`
	City           *string   `parquet:"city,optional"`
	State          *string   `parquet:"state,optional"`
	County         *string   `parquet:"county,optional"`
	Embedding      []float32 `parquet:"embedding,list"`
}

type parquetArticle struct {
	PageID     string    `parquet:"page_id"`
	Title      *string   `parquet:"title,optional"`
	Summary    *string   `parquet:"summary,optional"`
	BestCity   *string   `parquet:"best_city,optional"`
	BestState  *string   `parquet:"best_state,optional"`
	BestCounty *string   `parquet:"best_county,optional"`
	Embedding  []float32 `parquet:"embedding,list"`
}

// setOpt copies an optional column into the record only when the source
// carried a value, so Record presence checks see nulls as absent.
func setOpt[T any](rec Record, column string, v *T) {
	if v != nil {
		rec[column] = *v
	}
}

// ReadPropertiesParquet loads the property feed from a Parquet snapshot.
func ReadPropertiesParquet(path string) (*Table, error) {
	rows, err := parquet.ReadFile[parquetProperty](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read properties parquet %s: %w", path, err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := Record{
			ColListingID: row.ListingID,
			ColFeatures:  row.Features,
			ColEmbedding: row.Embedding,
		}
		setOpt(rec, ColPrice, row.Price)
		setOpt(rec, ColBedrooms, row.Bedrooms)
		setOpt(rec, ColBathrooms, row.Bathrooms)
		setOpt(rec, ColSquareFeet, row.SquareFeet)
		setOpt(rec, ColPropertyType, row.PropertyType)
		setOpt(rec, ColAddress, row.Address)
		setOpt(rec, ColCity, row.City)
		setOpt(rec, ColState, row.State)
		setOpt(rec, ColZipCode, row.ZipCode)
		setOpt(rec, ColNeighborhoodID, row.NeighborhoodID)
		records = append(records, rec)
	}
	return NewTable("properties", PropertyColumns(), records), nil
}

// ReadNeighborhoodsParquet loads the neighborhood feed from a Parquet
// snapshot.
func ReadNeighborhoodsParquet(path string) (*Table, error) {
	rows, err := parquet.ReadFile[parquetNeighborhood](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read neighborhoods parquet %s: %w", path, err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := Record{
			ColNeighborhoodID: row.NeighborhoodID,
			ColEmbedding:      row.Embedding,
		}
		setOpt(rec, ColName, row.Name)
		setOpt(rec, ColCity, row.City)
		setOpt(rec, ColState, row.State)
		setOpt(rec, ColCounty, row.County)
		records = append(records, rec)
	}
	return NewTable("neighborhoods", NeighborhoodColumns(), records), nil
}

// ReadArticlesParquet loads the article feed from a Parquet snapshot.
func ReadArticlesParquet(path string) (*Table, error) {
	rows, err := parquet.ReadFile[parquetArticle](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read articles parquet %s: %w", path, err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := Record{
			ColPageID:    row.PageID,
			ColEmbedding: row.Embedding,
		}
		setOpt(rec, ColTitle, row.Title)
		setOpt(rec, ColSummary, row.Summary)
		setOpt(rec, ColBestCity, row.BestCity)
		setOpt(rec, ColBestState, row.BestState)
		setOpt(rec, ColBestCounty, row.BestCounty)
		records = append(records, rec)
	}
	return NewTable("articles", ArticleColumns(), records), nil
}
