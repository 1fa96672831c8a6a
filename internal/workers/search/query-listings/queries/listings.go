// Package queries composes and runs the listings search SQL. The builder is
// pure (criteria in, statement and args out) so predicate composition is
// testable without a database.
package queries

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"

	"hotsheet-workers/internal/criteria"
	"hotsheet-workers/internal/models"
)

const listingColumns = `id, listing_number, agent_id, address, city, neighborhood, state, zip,
	price, property_type, bedrooms, bathrooms, square_feet, status, listing_type,
	created_at, updated_at`

var exactZipRe = regexp.MustCompile(`^\d{5}$`)

// BuildListingSearch translates canonical criteria into one SELECT over the
// listings table. Zero-valued numeric bounds emit no predicate; an empty
// status set falls back to the default public statuses. The caller's
// criteria value is never modified.
func BuildListingSearch(c models.SearchCriteria, limit int) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	statuses := c.Statuses
	if len(statuses) == 0 {
		statuses = models.DefaultSearchStatuses
	}
	clauses = append(clauses, fmt.Sprintf("status = ANY(%s)", arg(pq.Array(statuses))))

	if c.State != "" {
		clauses = append(clauses, fmt.Sprintf("UPPER(state) = UPPER(%s)", arg(c.State)))
	}

	if len(c.Cities) > 0 {
		group := make([]string, 0, len(c.Cities))
		for _, entry := range c.Cities {
			town, nbhd, isPair := criteria.SplitCityEntry(entry)
			if isPair {
				group = append(group, fmt.Sprintf("(city ILIKE %s AND neighborhood ILIKE %s)",
					arg("%"+town+"%"), arg("%"+nbhd+"%")))
			} else {
				group = append(group, fmt.Sprintf("city ILIKE %s", arg("%"+town+"%")))
			}
		}
		clauses = append(clauses, "("+strings.Join(group, " OR ")+")")
	}

	if c.ZipCode != "" {
		if exactZipRe.MatchString(c.ZipCode) {
			clauses = append(clauses, fmt.Sprintf("zip = %s", arg(c.ZipCode)))
		} else {
			clauses = append(clauses, fmt.Sprintf("zip LIKE %s", arg(c.ZipCode+"%")))
		}
	}

	if len(c.PropertyTypes) > 0 {
		clauses = append(clauses, fmt.Sprintf("property_type = ANY(%s)", arg(pq.Array(c.PropertyTypes))))
	}

	if c.MinPrice > 0 {
		clauses = append(clauses, fmt.Sprintf("price >= %s", arg(c.MinPrice)))
	}
	if c.MaxPrice > 0 {
		clauses = append(clauses, fmt.Sprintf("price <= %s", arg(c.MaxPrice)))
	}
	if c.Bedrooms > 0 {
		clauses = append(clauses, fmt.Sprintf("bedrooms >= %s", arg(c.Bedrooms)))
	}
	if c.Bathrooms > 0 {
		clauses = append(clauses, fmt.Sprintf("bathrooms >= %s", arg(c.Bathrooms)))
	}
	if c.MinSqft > 0 {
		clauses = append(clauses, fmt.Sprintf("square_feet >= %s", arg(c.MinSqft)))
	}
	if c.MaxSqft > 0 {
		clauses = append(clauses, fmt.Sprintf("square_feet <= %s", arg(c.MaxSqft)))
	}

	if c.ListingNumber != "" {
		clauses = append(clauses, fmt.Sprintf("listing_number ILIKE %s", arg("%"+c.ListingNumber+"%")))
	}

	query := "SELECT " + listingColumns + " FROM listings WHERE " +
		strings.Join(clauses, " AND ") + " ORDER BY created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %s", arg(limit))
	}
	return query, args
}

// SearchListings runs the composed statement and scans the result set.
func SearchListings(ctx context.Context, db *sql.DB, c models.SearchCriteria, limit int) ([]models.Listing, error) {
	query, args := BuildListingSearch(c, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	listings := []models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return listings, nil
}

func scanListing(rows *sql.Rows) (models.Listing, error) {
	var (
		l            models.Listing
		neighborhood sql.NullString
		bedrooms     sql.NullInt64
		bathrooms    sql.NullFloat64
		squareFeet   sql.NullInt64
	)

	err := rows.Scan(
		&l.ID, &l.ListingNumber, &l.AgentID, &l.Address, &l.City, &neighborhood,
		&l.State, &l.Zip, &l.Price, &l.PropertyType, &bedrooms, &bathrooms,
		&squareFeet, &l.Status, &l.ListingType, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return models.Listing{}, err
	}

	l.Neighborhood = neighborhood.String
	if bedrooms.Valid {
		v := int(bedrooms.Int64)
		l.Bedrooms = &v
	}
	if bathrooms.Valid {
		v := bathrooms.Float64
		l.Bathrooms = &v
	}
	if squareFeet.Valid {
		v := int(squareFeet.Int64)
		l.SquareFeet = &v
	}
	return l, nil
}
