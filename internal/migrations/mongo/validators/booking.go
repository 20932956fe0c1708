package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"email",
			"context",
			"status",
			"created_at",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"email": bson.M{
				"bsonType":  "string",
				"maxLength": 254,
				"pattern":   `^[^\s@]+@[^\s@]+\.[^\s@]+$`,
			},

			"context": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 5000,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending_payment",
					"pending",
					"payment_failed",
					"approved",
					"rejected",
					"paid",
				},
			},

			"payment_reference": bson.M{
				"bsonType": "string",
			},

			"payment_amount_cents": bson.M{
				"bsonType": []string{"long", "int"},
				"minimum":  0,
			},

			"payment_currency": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 3,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},

			"approved_at": bson.M{
				"bsonType": "date",
			},

			"rejected_at": bson.M{
				"bsonType": "date",
			},

			"paid_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
