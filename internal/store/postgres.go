// Package store is the relational+vector store client. One recipes table
// holds display attributes, an ingredients text[] column, and a pgvector
// embedding column written by the ingestion pipeline.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/agenthands/saffron/internal/core/model"
)

var ErrNotFound = errors.New("recipe not found")

const recipeColumns = `id, title, description, url, cuisine, course, diet,
	prep_time_mins, cook_time_mins, rating, vote_count, ingredients`

type Store struct {
	db             *sql.DB
	maxIngredients int
}

func Open(dsn string, maxVocabIngredients int) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	log.Println("Connected to Postgres")
	return &Store{db: db, maxIngredients: maxVocabIngredients}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Vocabulary reads the controlled values currently present in the store:
// distinct cuisines/courses/diets plus the most frequent ingredient names.
func (s *Store) Vocabulary(ctx context.Context) (model.Vocabulary, error) {
	var v model.Vocabulary

	simple := []struct {
		column string
		dest   *[]string
	}{
		{"cuisine", &v.Cuisines},
		{"course", &v.Courses},
		{"diet", &v.Diets},
	}
	for _, q := range simple {
		query := fmt.Sprintf(
			"SELECT DISTINCT %s FROM recipes WHERE %s IS NOT NULL AND %s <> '' ORDER BY %s",
			q.column, q.column, q.column, q.column)
		values, err := s.stringColumn(ctx, query)
		if err != nil {
			return model.Vocabulary{}, fmt.Errorf("failed to read %s vocabulary: %w", q.column, err)
		}
		*q.dest = values
	}

	ingredients, err := s.stringColumn(ctx, `
		SELECT ingredient
		FROM (
			SELECT unnest(ingredients) AS ingredient
			FROM recipes
			WHERE ingredients IS NOT NULL
		) expanded
		WHERE ingredient IS NOT NULL AND ingredient <> ''
		GROUP BY ingredient
		ORDER BY COUNT(*) DESC
		LIMIT $1
	`, s.maxIngredients)
	if err != nil {
		return model.Vocabulary{}, fmt.Errorf("failed to read ingredient vocabulary: %w", err)
	}
	v.Ingredients = ingredients

	return v, nil
}

func (s *Store) stringColumn(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// RecipeRow is one recipes row, with the vector distance populated only by
// embedding-ordered queries.
type RecipeRow struct {
	model.Recipe
	Distance sql.NullFloat64
}

// buildPredicate turns the intent's structured filters into a WHERE
// conjunction with $n placeholders starting at 1. The exclude list filters
// out any recipe whose ingredient array contains a match,
// case-insensitively.
func buildPredicate(intent *model.ParsedIntent) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	add := func(format string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(format, len(args)))
	}

	if intent.Cuisine != "" {
		add("cuisine = $%d", intent.Cuisine)
	}
	if intent.Diet != "" {
		add("diet = $%d", intent.Diet)
	}
	if intent.Course != "" {
		add("course = $%d", intent.Course)
	}
	if intent.MaxPrepTimeMins > 0 {
		add("prep_time_mins <= $%d", intent.MaxPrepTimeMins)
	}
	if intent.MaxCookTimeMins > 0 {
		add("cook_time_mins <= $%d", intent.MaxCookTimeMins)
	}
	for _, ing := range intent.IngredientsExclude {
		add("NOT EXISTS (SELECT 1 FROM unnest(ingredients) AS ing WHERE ing ILIKE $%d)", "%"+ing+"%")
	}

	if len(conditions) == 0 {
		return "TRUE", nil
	}

	where := conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}
	return where, args
}

// SearchFiltered runs the relational predicate alone, best-rated first.
func (s *Store) SearchFiltered(ctx context.Context, intent *model.ParsedIntent, limit int) ([]RecipeRow, error) {
	where, args := buildPredicate(intent)
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT %s, NULL::float AS distance
		FROM recipes
		WHERE %s
		ORDER BY rating DESC
		LIMIT $%d
	`, recipeColumns, where, len(args))

	return s.queryRows(ctx, query, args)
}

// SearchByEmbedding runs the relational predicate joined with a
// nearest-neighbor ordering over the embedding column (cosine distance,
// closest first).
func (s *Store) SearchByEmbedding(ctx context.Context, intent *model.ParsedIntent, embedding []float32, limit int) ([]RecipeRow, error) {
	where, args := buildPredicate(intent)
	args = append(args, pgvector.NewVector(embedding))
	vecArg := len(args)
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT %s, embedding <=> $%d AS distance
		FROM recipes
		WHERE %s
		ORDER BY distance
		LIMIT $%d
	`, recipeColumns, vecArg, where, len(args))

	return s.queryRows(ctx, query, args)
}

// RecipeByID returns the full row or ErrNotFound.
func (s *Store) RecipeByID(ctx context.Context, id int64) (*model.Recipe, error) {
	query := fmt.Sprintf(`
		SELECT %s, NULL::float AS distance
		FROM recipes
		WHERE id = $1
	`, recipeColumns)

	rows, err := s.queryRows(ctx, query, []interface{}{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0].Recipe, nil
}

// RecipesByIDs loads full rows for the given ids, keyed by id. Missing ids
// are simply absent from the map.
func (s *Store) RecipesByIDs(ctx context.Context, ids []int64) (map[int64]model.Recipe, error) {
	if len(ids) == 0 {
		return map[int64]model.Recipe{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s, NULL::float AS distance
		FROM recipes
		WHERE id = ANY($1)
	`, recipeColumns)

	rows, err := s.queryRows(ctx, query, []interface{}{pq.Array(ids)})
	if err != nil {
		return nil, err
	}

	recipes := make(map[int64]model.Recipe, len(rows))
	for _, row := range rows {
		recipes[row.ID] = row.Recipe
	}
	return recipes, nil
}

func (s *Store) queryRows(ctx context.Context, query string, args []interface{}) ([]RecipeRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("recipe query failed: %w", err)
	}
	defer rows.Close()

	var results []RecipeRow
	for rows.Next() {
		var r RecipeRow
		var description, url, cuisine, course, diet sql.NullString
		var prep, cook, votes sql.NullInt64
		var rating sql.NullFloat64
		var ingredients pq.StringArray

		err := rows.Scan(
			&r.ID, &r.Title, &description, &url, &cuisine, &course, &diet,
			&prep, &cook, &rating, &votes, &ingredients, &r.Distance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe row: %w", err)
		}

		r.Description = description.String
		r.URL = url.String
		r.Cuisine = cuisine.String
		r.Course = course.String
		r.Diet = diet.String
		r.PrepTimeMins = int(prep.Int64)
		r.CookTimeMins = int(cook.Int64)
		r.Rating = rating.Float64
		r.VoteCount = int(votes.Int64)
		r.Ingredients = ingredients

		results = append(results, r)
	}
	return results, rows.Err()
}
