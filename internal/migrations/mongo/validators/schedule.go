package validators

import "go.mongodb.org/mongo-driver/bson"

const hhmmPattern = `^([01]\d|2[0-3]):[0-5]\d$`

var WeeklyScheduleValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"provider_id", "member_id", "day_of_week", "is_open", "ranges"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":         bson.M{"bsonType": "objectId"},
			"provider_id": bson.M{"bsonType": "string", "minLength": 1},
			"member_id":   bson.M{"bsonType": "string", "minLength": 1},
			"location_id": bson.M{"bsonType": "string"},
			"day_of_week": bson.M{"bsonType": []string{"int", "long"}, "minimum": 0, "maximum": 6},
			"is_open":     bson.M{"bsonType": "bool"},
			"ranges": bson.M{
				"bsonType": "array",
				"maxItems": 4,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"start", "end"},
					"properties": bson.M{
						"start": bson.M{"bsonType": "string", "pattern": hhmmPattern},
						"end":   bson.M{"bsonType": "string", "pattern": hhmmPattern},
					},
				},
			},
			"updated_at": bson.M{"bsonType": "date"},
		},
	},
}

var BlockedPeriodValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"provider_id", "member_id", "start_date", "end_date", "all_day", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":         bson.M{"bsonType": "objectId"},
			"provider_id": bson.M{"bsonType": "string", "minLength": 1},
			"member_id":   bson.M{"bsonType": "string"},
			"location_id": bson.M{"bsonType": "string"},
			"start_date":  bson.M{"bsonType": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
			"end_date":    bson.M{"bsonType": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
			"all_day":     bson.M{"bsonType": "bool"},
			"start_time":  bson.M{"bsonType": "string", "pattern": hhmmPattern},
			"end_time":    bson.M{"bsonType": "string", "pattern": hhmmPattern},
			"reason":      bson.M{"bsonType": "string", "maxLength": 200},
			"created_at":  bson.M{"bsonType": "date"},
		},
	},
}
