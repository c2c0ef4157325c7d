package validators

import "go.mongodb.org/mongo-driver/bson"

var memberSchema = bson.M{
	"bsonType": "object",
	"required": []string{"id", "name", "active"},
	"properties": bson.M{
		"id":          bson.M{"bsonType": "string", "minLength": 1, "maxLength": 64},
		"name":        bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
		"location_id": bson.M{"bsonType": "string"},
		"active":      bson.M{"bsonType": "bool"},
	},
}

var serviceSchema = bson.M{
	"bsonType": "object",
	"required": []string{"id", "name", "duration", "active"},
	"properties": bson.M{
		"id":          bson.M{"bsonType": "string", "minLength": 1, "maxLength": 64},
		"name":        bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
		"duration":    bson.M{"bsonType": []string{"int", "long"}, "minimum": 1, "maximum": 1440},
		"buffer_time": bson.M{"bsonType": []string{"int", "long"}, "minimum": 0, "maximum": 240},
		"member_ids":  bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
		"active":      bson.M{"bsonType": "bool"},
	},
}

var ProviderValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "published", "members", "services", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":               bson.M{"bsonType": "objectId"},
			"name":              bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
			"published":         bson.M{"bsonType": "bool"},
			"time_zone":         bson.M{"bsonType": "string"},
			"default_member_id": bson.M{"bsonType": "string"},
			"members": bson.M{
				"bsonType": "array",
				"maxItems": 50,
				"items":    memberSchema,
			},
			"services": bson.M{
				"bsonType": "array",
				"maxItems": 100,
				"items":    serviceSchema,
			},
			"next_available_date": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},
			"created_at": bson.M{"bsonType": "date"},
			"updated_at": bson.M{"bsonType": "date"},
		},
	},
}
