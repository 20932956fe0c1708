package validators

import "go.mongodb.org/mongo-driver/bson"

var PaymentEventValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "type", "result", "processed_at"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"result": bson.M{
				"bsonType": "string",
				"enum":     []string{"applied", "ignored"},
			},
			"processed_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
