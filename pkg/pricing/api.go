package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
)

// AWS pricing client implementation
var (
	// pricingClient is the AWS Pricing API client
	pricingClient *pricing.Client

	// pricingInitOnce ensures the client is initialized only once
	pricingInitOnce sync.Once

	// initMessage stores the API initialization message to be displayed after spinners
	initMessage string
)

// initPricingClient initializes the AWS pricing client.
// The AWS Pricing API is only available in us-east-1 and ap-south-1.
func initPricingClient() {
	pricingRegion := "us-east-1"
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(pricingRegion))
	if err != nil {
		initMessage = fmt.Sprintf("Error loading AWS config for pricing API: %v. Using static estimate tables.", err)
		return
	}

	pricingClient = pricing.NewFromConfig(cfg)
	initMessage = fmt.Sprintf("AWS Pricing API initialized in %s region (https://api.pricing.%s.amazonaws.com)", pricingRegion, pricingRegion)
}

// GetInitMessage returns the initialization message and clears it
func GetInitMessage() string {
	msg := initMessage
	initMessage = ""
	return msg
}

// getPriceFromAPI fetches the first matching price list entry for a service
// code and filter set.
func getPriceFromAPI(ctx context.Context, serviceCode string, filters []types.Filter, resourceType, region string) (string, error) {
	pricingInitOnce.Do(initPricingClient)

	if pricingClient == nil {
		return "", fmt.Errorf("AWS pricing client not initialized")
	}

	input := &pricing.GetProductsInput{
		ServiceCode: aws.String(serviceCode),
		Filters:     filters,
		MaxResults:  aws.Int32(1),
	}

	resp, err := pricingClient.GetProducts(ctx, input)
	if err != nil {
		return "", fmt.Errorf("error calling AWS Pricing API: %w", err)
	}

	if len(resp.PriceList) == 0 {
		return "", fmt.Errorf("no pricing found for %s in region %s", resourceType, region)
	}

	return resp.PriceList[0], nil
}

// instanceHourlyFromAPI returns the hourly on-demand price for an EC2
// instance type via the Pricing API, caching results per run. The boolean is
// false when the lookup failed and the caller should fall back to the static
// tables.
func instanceHourlyFromAPI(instanceType, region string) (float64, Source, bool) {
	pricingInitOnce.Do(initPricingClient)

	cacheKey := fmt.Sprintf("%s:%s", region, instanceType)

	ec2PriceCacheLock.RLock()
	if price, exists := ec2PriceCache[cacheKey]; exists {
		ec2PriceCacheLock.RUnlock()
		updateCacheHitStats("EC2", region)
		return price, SourceCache, true
	}
	ec2PriceCacheLock.RUnlock()

	if pricingClient == nil {
		updateAPIFailureStats("EC2", region)
		return 0, SourceNA, false
	}

	price, err := getEC2PriceFromAPI(instanceType, region)
	if err != nil {
		updateAPIFailureStats("EC2", region)
		return 0, SourceNA, false
	}

	updateAPISuccessStats("EC2", region)

	ec2PriceCacheLock.Lock()
	ec2PriceCache[cacheKey] = price
	ec2PriceCacheLock.Unlock()

	return price, SourceAPI, true
}

// getEC2PriceFromAPI retrieves EC2 instance pricing from the AWS Pricing API
func getEC2PriceFromAPI(instanceType, region string) (float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Filters for EC2 Linux on-demand instances
	filters := []types.Filter{
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("instanceType"),
			Value: aws.String(instanceType),
		},
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("location"),
			Value: aws.String(GetRegionDescriptiveName(region)),
		},
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("operatingSystem"),
			Value: aws.String("Linux"),
		},
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("tenancy"),
			Value: aws.String("Shared"),
		},
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("preInstalledSw"),
			Value: aws.String("NA"),
		},
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("capacitystatus"),
			Value: aws.String("Used"),
		},
	}

	priceJSON, err := getPriceFromAPI(ctx, "AmazonEC2", filters, instanceType, region)
	if err != nil {
		return 0, err
	}

	return ExtractOnDemandPrice(priceJSON)
}
