package driver

const (
	// SimilarByIngredientsQuery ranks other recipes by how many ingredients
	// they share with the given one.
	SimilarByIngredientsQuery = `
		MATCH (r1:Recipe {id: $recipe_id})-[:CONTAINS]->(i:Ingredient)<-[:CONTAINS]-(r2:Recipe)
		WHERE r1 <> r2
		WITH r2, count(DISTINCT i) AS shared_ingredients
		RETURN r2.id AS id, r2.title AS title, r2.rating AS rating,
		       r2.prep_time_mins AS prep_time_mins, r2.cook_time_mins AS cook_time_mins,
		       shared_ingredients
		ORDER BY shared_ingredients DESC, r2.rating DESC
		LIMIT $limit
	`

	// RecipeIngredientsQuery lists the ingredient names linked to a recipe.
	RecipeIngredientsQuery = `
		MATCH (r:Recipe {id: $recipe_id})-[:CONTAINS]->(i:Ingredient)
		RETURN i.name AS name
		ORDER BY name
	`
)
