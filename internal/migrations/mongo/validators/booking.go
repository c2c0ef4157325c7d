package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"provider_id",
			"member_id",
			"service_id",
			"datetime",
			"end_datetime",
			"buffer_time",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"provider_id": bson.M{"bsonType": "string", "minLength": 1},
			"member_id":   bson.M{"bsonType": "string", "minLength": 1},
			"service_id":  bson.M{"bsonType": "string", "minLength": 1},
			"location_id": bson.M{"bsonType": "string"},

			"datetime": bson.M{
				"bsonType": "date",
			},

			"end_datetime": bson.M{
				"bsonType": "date",
			},

			"buffer_time": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
				"maximum":  240,
			},

			"status": bson.M{
				"enum": []string{"pending", "confirmed", "cancelled", "completed", "noshow"},
			},

			"client_name": bson.M{"bsonType": "string", "maxLength": 100},
			"client_phone": bson.M{
				"bsonType": "string",
				"pattern":  `^\+[1-9]\d{1,14}$`,
			},

			"created_at": bson.M{"bsonType": "date"},
		},
	},
}

var BookingLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "expires_at", "created_at"},
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string"},
			"expires_at": bson.M{"bsonType": "date"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
