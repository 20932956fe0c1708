package validators

import "go.mongodb.org/mongo-driver/bson"

var AnalyticsValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"event",
			"path",
			"device",
			"visitor_hash",
			"timestamp",
			"date",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"event": bson.M{
				"bsonType": "string",
				"enum":     []string{"page_view", "click"},
			},

			"path": bson.M{
				"bsonType":  "string",
				"maxLength": 512,
			},

			"referrer": bson.M{
				"bsonType":  "string",
				"maxLength": 2048,
			},

			"device": bson.M{
				"bsonType": "string",
				"enum":     []string{"mobile", "desktop"},
			},

			"user_agent": bson.M{
				"bsonType":  "string",
				"maxLength": 200,
			},

			"visitor_hash": bson.M{
				"bsonType": "string",
				"pattern":  "^v_[0-9a-f]+$",
			},

			"timestamp": bson.M{
				"bsonType": "date",
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},
		},
	},
}
