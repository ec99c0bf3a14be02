// Package awscheck implements the AWS IAM Identity Center checks.
package awscheck

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/identitystore"
	identitystoretypes "github.com/aws/aws-sdk-go-v2/service/identitystore/types"
	"github.com/aws/aws-sdk-go-v2/service/ssoadmin"
)

const defaultHTTPTimeout = 60 * time.Second

// Options configure the AWS client for one connection.
type Options struct {
	Region          string
	InstanceArn     string
	IdentityStoreID string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

type Client struct {
	instanceArn     string
	identityStoreID string

	ssoadmin      ssoAdminAPI
	identitystore identityStoreAPI
}

type ssoAdminAPI interface {
	ListInstances(context.Context, *ssoadmin.ListInstancesInput, ...func(*ssoadmin.Options)) (*ssoadmin.ListInstancesOutput, error)
	ListPermissionSets(context.Context, *ssoadmin.ListPermissionSetsInput, ...func(*ssoadmin.Options)) (*ssoadmin.ListPermissionSetsOutput, error)
	DescribePermissionSet(context.Context, *ssoadmin.DescribePermissionSetInput, ...func(*ssoadmin.Options)) (*ssoadmin.DescribePermissionSetOutput, error)
}

type identityStoreAPI interface {
	ListUsers(context.Context, *identitystore.ListUsersInput, ...func(*identitystore.Options)) (*identitystore.ListUsersOutput, error)
}

// New builds a client from static credentials when present, otherwise from
// the default credential chain.
func New(ctx context.Context, opts Options) (*Client, error) {
	region := strings.TrimSpace(opts.Region)
	if region == "" {
		return nil, errors.New("aws region is required")
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithHTTPClient(&http.Client{Timeout: defaultHTTPTimeout}),
	}
	accessKeyID := strings.TrimSpace(opts.AccessKeyID)
	secretAccessKey := strings.TrimSpace(opts.SecretAccessKey)
	switch {
	case accessKeyID != "" && secretAccessKey != "":
		loadOpts = append(loadOpts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			strings.TrimSpace(opts.SessionToken),
		)))
	case accessKeyID != "" || secretAccessKey != "":
		return nil, errors.New("aws access key id and secret access key are both required")
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	return NewWithClients(opts, ssoadmin.NewFromConfig(cfg), identitystore.NewFromConfig(cfg)), nil
}

func NewWithClients(opts Options, sso ssoAdminAPI, identity identityStoreAPI) *Client {
	return &Client{
		instanceArn:     strings.TrimSpace(opts.InstanceArn),
		identityStoreID: strings.TrimSpace(opts.IdentityStoreID),
		ssoadmin:        sso,
		identitystore:   identity,
	}
}

type instance struct {
	Arn             string
	IdentityStoreID string
	Name            string
	Status          string
}

func (c *Client) listInstances(ctx context.Context) ([]instance, error) {
	var out []instance
	var token *string
	for {
		resp, err := c.ssoadmin.ListInstances(ctx, &ssoadmin.ListInstancesInput{NextToken: token})
		if err != nil {
			return nil, err
		}
		for _, inst := range resp.Instances {
			out = append(out, instance{
				Arn:             strings.TrimSpace(aws.ToString(inst.InstanceArn)),
				IdentityStoreID: strings.TrimSpace(aws.ToString(inst.IdentityStoreId)),
				Name:            strings.TrimSpace(aws.ToString(inst.Name)),
				Status:          string(inst.Status),
			})
		}
		if resp.NextToken == nil || aws.ToString(resp.NextToken) == "" {
			break
		}
		token = resp.NextToken
	}
	return out, nil
}

// resolveInstance fills in the instance ARN and identity store id from the
// first instance when they were not configured.
func (c *Client) resolveInstance(ctx context.Context) error {
	if c.instanceArn != "" && c.identityStoreID != "" {
		return nil
	}
	instances, err := c.listInstances(ctx)
	if err != nil {
		return err
	}
	if len(instances) == 0 {
		return errNoInstance
	}

	selected := instances[0]
	if c.instanceArn != "" {
		for _, inst := range instances {
			if inst.Arn == c.instanceArn {
				selected = inst
				break
			}
		}
	}
	if c.instanceArn == "" {
		c.instanceArn = selected.Arn
	}
	if c.identityStoreID == "" {
		c.identityStoreID = selected.IdentityStoreID
	}
	return nil
}

var errNoInstance = errors.New("no aws identity center instance found")

type user struct {
	ID          string
	UserName    string
	DisplayName string
	Email       string
}

func (c *Client) listUsers(ctx context.Context) ([]user, error) {
	if err := c.resolveInstance(ctx); err != nil {
		return nil, err
	}

	var out []user
	var token *string
	for {
		resp, err := c.identitystore.ListUsers(ctx, &identitystore.ListUsersInput{
			IdentityStoreId: aws.String(c.identityStoreID),
			NextToken:       token,
		})
		if err != nil {
			return nil, err
		}
		for _, u := range resp.Users {
			out = append(out, user{
				ID:          strings.TrimSpace(aws.ToString(u.UserId)),
				UserName:    strings.TrimSpace(aws.ToString(u.UserName)),
				DisplayName: strings.TrimSpace(aws.ToString(u.DisplayName)),
				Email:       firstNonEmptyEmail(u.Emails),
			})
		}
		if resp.NextToken == nil || aws.ToString(resp.NextToken) == "" {
			break
		}
		token = resp.NextToken
	}
	return out, nil
}

type permissionSet struct {
	Arn             string
	Name            string
	SessionDuration string
}

func (c *Client) listPermissionSets(ctx context.Context) ([]permissionSet, error) {
	if err := c.resolveInstance(ctx); err != nil {
		return nil, err
	}

	var out []permissionSet
	var token *string
	for {
		resp, err := c.ssoadmin.ListPermissionSets(ctx, &ssoadmin.ListPermissionSetsInput{
			InstanceArn: aws.String(c.instanceArn),
			NextToken:   token,
		})
		if err != nil {
			return nil, err
		}
		for _, arn := range resp.PermissionSets {
			arn = strings.TrimSpace(arn)
			if arn == "" {
				continue
			}
			ps, err := c.describePermissionSet(ctx, arn)
			if err != nil {
				return nil, err
			}
			out = append(out, ps)
		}
		if resp.NextToken == nil || aws.ToString(resp.NextToken) == "" {
			break
		}
		token = resp.NextToken
	}
	return out, nil
}

func (c *Client) describePermissionSet(ctx context.Context, arn string) (permissionSet, error) {
	resp, err := c.ssoadmin.DescribePermissionSet(ctx, &ssoadmin.DescribePermissionSetInput{
		InstanceArn:      aws.String(c.instanceArn),
		PermissionSetArn: aws.String(arn),
	})
	if err != nil {
		return permissionSet{}, err
	}
	out := permissionSet{Arn: arn}
	if resp.PermissionSet != nil {
		out.Name = strings.TrimSpace(aws.ToString(resp.PermissionSet.Name))
		out.SessionDuration = strings.TrimSpace(aws.ToString(resp.PermissionSet.SessionDuration))
	}
	return out, nil
}

func firstNonEmptyEmail(emails []identitystoretypes.Email) string {
	for _, email := range emails {
		value := strings.TrimSpace(aws.ToString(email.Value))
		if value != "" {
			return value
		}
	}
	return ""
}
