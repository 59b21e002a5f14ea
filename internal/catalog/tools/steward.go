package tools

import (
	"context"
	"fmt"
	"strings"
)

type steward struct {
	name     string
	domain   string
	keywords []string
	schemas  []string
	tags     []string
}

var stewards = []steward{
	{
		name:     "Jay",
		domain:   "Product Engineering & IoT Telemetry",
		keywords: []string{"telemetry", "sensor", "firmware", "device_metrics", "diagnostics", "component_status"},
		schemas:  []string{"iot_logs", "device_metrics", "hardware_telemetry"},
		tags:     []string{"IoT", "DeviceHealth", "EngineeringData"},
	},
	{
		name:     "Abhinav Khandelwal",
		domain:   "Scientific Modeling & Experimental Data",
		keywords: []string{"experiment", "model_eval", "hypothesis", "sim_results", "lab_data"},
		schemas:  []string{"science_lab", "research_data", "modeling"},
		tags:     []string{"Simulation", "LabData", "R&D", "MLExperimentTracking"},
	},
	{
		name:     "Mrugesh",
		domain:   "Customer Behavior & Engagement Analytics",
		keywords: []string{"clickstream", "session", "user_events", "engagement", "page_views", "conversion_rate"},
		schemas:  []string{"customer_analytics", "behavior_tracking", "web_analytics"},
		tags:     []string{"UserEngagement", "WebAnalytics", "SessionData"},
	},
	{
		name:     "Yogesh(YK)",
		domain:   "Inventory, Logistics & Supply Chain",
		keywords: []string{"inventory", "shipment", "warehouse", "supply_chain", "sku", "stock_level", "order_fulfillment"},
		schemas:  []string{"logistics", "inventory_ops", "supply_data"},
		tags:     []string{"InventoryAnalytics", "SupplyChain", "WarehouseData"},
	},
	{
		name:     "Ravi",
		domain:   "Finance & Revenue Analytics",
		keywords: []string{"revenue", "profit", "forecast", "pricing", "budget", "transaction", "invoice", "AR_AP"},
		schemas:  []string{"finance_reporting", "revenue_mgmt", "transactions"},
		tags:     []string{"FinanceData", "RevenueAnalytics", "ProfitForecast"},
	},
}

type GetDataStewardInfoArgs struct{}

// GetDataStewardInfo returns the steward assignment guide. It is advisory
// text only; applying a steward goes through the custom field tools.
func GetDataStewardInfo(_ context.Context, _ *Deps, _ GetDataStewardInfoArgs) (string, error) {
	return stewardGuide, nil
}

var stewardGuide = renderStewardGuide()

func renderStewardGuide() string {
	var b strings.Builder
	b.WriteString("Data stewards (owners) are responsible for the quality, documentation and governance of data assets. " +
		"Well-curated data is well documented, has clear ownership and follows governance best practices.\n\n")
	b.WriteString("Steward Assignment Logic:\n")
	b.WriteString("- Analyze the schema, table name, column names, tags, glossary terms and usage lineage.\n")
	b.WriteString("- Match these against the criteria below and suggest the top 1-2 matching stewards for approval.\n")
	b.WriteString("- If a table matches multiple domains, suggest co-stewards or route it for manual resolution.\n\n")
	b.WriteString("Domains and Matching Criteria:\n")
	for _, s := range stewards {
		fmt.Fprintf(&b, "- %s: %s\n", s.name, s.domain)
		fmt.Fprintf(&b, "  - Keywords: %s\n", strings.Join(s.keywords, ", "))
		fmt.Fprintf(&b, "  - Schemas: %s\n", strings.Join(s.schemas, ", "))
		fmt.Fprintf(&b, "  - Tags: %s\n", strings.Join(s.tags, ", "))
	}
	b.WriteString("\nUsage Guide:\n")
	b.WriteString("- When asked about stewards, analyze the data asset and suggest the best-matching steward(s).\n")
	b.WriteString("- Always ask the user for consent before applying a steward.\n")
	b.WriteString("- If the user declines, suggest alternative stewards.\n")
	b.WriteString("- If the user requests it, apply the steward directly.\n")
	return b.String()
}
