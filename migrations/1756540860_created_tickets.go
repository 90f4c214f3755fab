package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "pbc_tickets_0001",
			"name": "tickets",
			"type": "base",
			"system": false,
			"fields": [
				{
					"id": "relation_tk_event",
					"name": "event",
					"type": "relation",
					"required": true,
					"collectionId": "pbc_events_0001",
					"cascadeDelete": false,
					"minSelect": 0,
					"maxSelect": 1
				},
				{
					"id": "number_tk_user",
					"name": "user_id",
					"type": "number",
					"required": true,
					"onlyInt": true
				},
				{
					"id": "text_tk_user_name",
					"name": "user_name",
					"type": "text",
					"required": false,
					"min": 0,
					"max": 0,
					"pattern": ""
				},
				{
					"id": "text_tk_phone",
					"name": "phone_number",
					"type": "text",
					"required": false,
					"min": 0,
					"max": 0,
					"pattern": ""
				},
				{
					"id": "text_tk_checkout_ref",
					"name": "checkout_ref",
					"type": "text",
					"required": true,
					"min": 0,
					"max": 0,
					"pattern": ""
				},
				{
					"id": "text_tk_code",
					"name": "code",
					"type": "text",
					"required": false,
					"min": 0,
					"max": 0,
					"pattern": ""
				},
				{
					"id": "autodate_tk_created",
					"name": "created",
					"type": "autodate",
					"onCreate": true,
					"onUpdate": false
				}
			],
			"indexes": [
				"CREATE INDEX idx_tickets_event ON tickets (event)",
				"CREATE INDEX idx_tickets_user_id ON tickets (user_id)",
				"CREATE INDEX idx_tickets_checkout_ref ON tickets (checkout_ref)"
			],
			"listRule": null,
			"viewRule": null,
			"createRule": null,
			"updateRule": null,
			"deleteRule": null
		}`

		collection := &core.Collection{}
		if err := json.Unmarshal([]byte(jsonData), collection); err != nil {
			return err
		}

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("pbc_tickets_0001")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
