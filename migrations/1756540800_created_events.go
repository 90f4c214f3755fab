package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "pbc_events_0001",
			"name": "events",
			"type": "base",
			"system": false,
			"fields": [
				{
					"id": "text_ev_name",
					"name": "name",
					"type": "text",
					"required": true,
					"min": 0,
					"max": 0,
					"pattern": ""
				},
				{
					"id": "text_ev_date",
					"name": "date",
					"type": "text",
					"required": true,
					"min": 0,
					"max": 0,
					"pattern": "^\\d{4}-\\d{2}-\\d{2}$"
				},
				{
					"id": "text_ev_location",
					"name": "location",
					"type": "text",
					"required": false,
					"min": 0,
					"max": 0,
					"pattern": ""
				},
				{
					"id": "number_ev_price",
					"name": "price",
					"type": "number",
					"required": false,
					"min": 0,
					"onlyInt": false
				},
				{
					"id": "number_ev_total",
					"name": "total_tickets",
					"type": "number",
					"required": true,
					"min": 1,
					"onlyInt": true
				},
				{
					"id": "bool_ev_active",
					"name": "is_active",
					"type": "bool",
					"required": false
				},
				{
					"id": "autodate_ev_created",
					"name": "created",
					"type": "autodate",
					"onCreate": true,
					"onUpdate": false
				},
				{
					"id": "autodate_ev_updated",
					"name": "updated",
					"type": "autodate",
					"onCreate": true,
					"onUpdate": true
				}
			],
			"indexes": [
				"CREATE INDEX idx_events_date ON events (date)",
				"CREATE INDEX idx_events_is_active ON events (is_active)"
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
		collection, err := app.FindCollectionByNameOrId("pbc_events_0001")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
