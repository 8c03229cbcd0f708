package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"weatherwise/presentation"
)

func main() {
	baseURL := flag.String("server", "http://localhost:8080", "Base URL of the dashboard server")
	city := flag.String("city", "", "City to look up (server default when empty)")
	units := flag.String("units", "", "Unit system: metric or imperial")
	date := flag.String("date", "", "Historical date, YYYY-MM-DD (default yesterday)")
	historical := flag.Bool("historical", false, "Include historical weather")
	asJSON := flag.Bool("json", false, "Print the raw JSON view instead of text")
	flag.Parse()

	params := map[string]string{}
	if *city != "" {
		params["city"] = *city
	}
	if *units != "" {
		params["units"] = *units
	}
	if *date != "" {
		params["date"] = *date
	}
	if *historical {
		params["historical"] = "1"
	}

	client := resty.New().
		SetBaseURL(*baseURL).
		SetTimeout(30 * time.Second)

	resp, err := client.R().
		SetQueryParams(params).
		SetHeader("Accept", "application/json").
		Get("/api/dashboard")
	if err != nil {
		fmt.Printf("Error fetching dashboard: %v\n", err)
		os.Exit(1)
	}

	// 404 and 502 still carry a view with the inline message
	var view presentation.View
	if err := json.Unmarshal(resp.Body(), &view); err != nil {
		fmt.Printf("Unexpected response (%d): %s\n", resp.StatusCode(), resp.String())
		os.Exit(1)
	}

	if *asJSON {
		prettyJSON, _ := json.MarshalIndent(view, "", "  ")
		fmt.Println(string(prettyJSON))
	} else if err := presentation.RenderText(os.Stdout, view); err != nil {
		fmt.Printf("Error printing dashboard: %v\n", err)
		os.Exit(1)
	}

	if !resp.IsSuccess() {
		os.Exit(2)
	}
}
